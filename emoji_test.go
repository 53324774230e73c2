package sticker

import "testing"

func TestEmojiCatalog(t *testing.T) {
	if len(EmojiCatalog) == 0 {
		t.Fatal("catalog is empty")
	}
	seen := make(map[string]bool)
	for _, e := range EmojiCatalog {
		if e.Ref.Kind != ImageBundled {
			t.Errorf("%s: ref kind = %d, want bundled", e.Label, e.Ref.Kind)
		}
		if seen[e.Ref.Name] {
			t.Errorf("duplicate emoji %q", e.Ref.Name)
		}
		seen[e.Ref.Name] = true
		if e.Label == "" {
			t.Errorf("%s has no label", e.Ref.Name)
		}
	}
}

func TestFindEmoji(t *testing.T) {
	e, ok := FindEmoji(BundledImage("emoji-wow"))
	if !ok || e.Label != "Wow" {
		t.Errorf("FindEmoji(emoji-wow) = %+v, %v", e, ok)
	}
	if _, ok := FindEmoji(BundledImage("emoji-none")); ok {
		t.Error("unknown emoji should not be found")
	}
	if _, ok := FindEmoji(PlaceholderImage); ok {
		t.Error("placeholder is not an emoji")
	}
}

func TestRegisterBundledAssets(t *testing.T) {
	lay := DefaultLayout()
	c := NewImageCache()
	RegisterBundledAssets(c, lay)

	bg, err := c.Load(PlaceholderImage)
	if err != nil {
		t.Fatalf("placeholder: %v", err)
	}
	if bg.Bounds().Dx() != int(lay.Canvas.Width) || bg.Bounds().Dy() != int(lay.Canvas.Height) {
		t.Errorf("placeholder bounds = %v, want canvas size", bg.Bounds())
	}

	for _, e := range EmojiCatalog {
		img, err := c.Load(e.Ref)
		if err != nil {
			t.Fatalf("%s: %v", e.Label, err)
		}
		if img.Bounds().Dx() != emojiTextureSize {
			t.Errorf("%s: width = %d", e.Label, img.Bounds().Dx())
		}
	}
}

func TestPlaceholderBackgroundGradient(t *testing.T) {
	img := placeholderBackground(40, 60)
	top := img.RGBAAt(0, 0)
	bottom := img.RGBAAt(0, 59)
	if top == bottom {
		t.Error("gradient should change from top to bottom")
	}
	if top.A != 0xff || bottom.A != 0xff {
		t.Error("background should be opaque")
	}
}
