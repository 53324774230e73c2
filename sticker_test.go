package sticker

import (
	"math"
	"testing"
)

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"outside left", 9, 40, false},
		{"outside right", 111, 40, false},
		{"outside above", 50, 19, false},
		{"outside below", 50, 71, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Contains(tt.x, tt.y)
			if got != tt.expect {
				t.Errorf("Rect%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

func TestRectCenter(t *testing.T) {
	c := Rect{10, 20, 100, 50}.Center()
	if c.X != 60 || c.Y != 45 {
		t.Errorf("Center = %v, want {60 45}", c)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ffffff", Color{1, 1, 1, 1}},
		{"#000000", Color{0, 0, 0, 1}},
		{"#ff000080", Color{1, 0, 0, 128.0 / 255}},
		{"25292e", Color{0x25 / 255.0, 0x29 / 255.0, 0x2e / 255.0, 1}},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if err != nil {
			t.Fatalf("ParseHexColor(%q): %v", tt.in, err)
		}
		if math.Abs(got.R-tt.want.R) > 1e-9 || math.Abs(got.G-tt.want.G) > 1e-9 ||
			math.Abs(got.B-tt.want.B) > 1e-9 || math.Abs(got.A-tt.want.A) > 1e-9 {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHexColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#fff", "#gggggg", "#1234567"} {
		if _, err := ParseHexColor(in); err == nil {
			t.Errorf("ParseHexColor(%q) should fail", in)
		}
	}
}

func TestColorToRGBAPremultiplies(t *testing.T) {
	got := Color{1, 0, 0, 0.5}.toRGBA()
	if got.R != 127 || got.G != 0 || got.A != 127 {
		t.Errorf("toRGBA = %v, want R=127 A=127", got)
	}
}
