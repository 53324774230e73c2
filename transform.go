package sticker

// DefaultStickerSize is the base edge length of a freshly placed sticker, in pixels.
const DefaultStickerSize = 40.0

// StickerTransform is the live size and position state of a placed sticker.
//
// Scale is the displayed edge length in pixels and is always Base or 2*Base.
// OffsetX and OffsetY accumulate drag movement relative to the sticker's
// anchor and are never clamped.
type StickerTransform struct {
	Base    float64
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewStickerTransform returns the initial transform {base, 0, 0}.
// A non-positive base falls back to DefaultStickerSize.
func NewStickerTransform(base float64) StickerTransform {
	if base <= 0 {
		base = DefaultStickerSize
	}
	return StickerTransform{Base: base, Scale: base}
}

// DoubleTap toggles Scale between Base and 2*Base.
func (t *StickerTransform) DoubleTap() {
	if t.Scale != t.Base*2 {
		t.Scale = t.Base * 2
	} else {
		t.Scale = t.Base
	}
}

// DragDelta adds (dx, dy) to the accumulated offset.
func (t *StickerTransform) DragDelta(dx, dy float64) {
	t.OffsetX += dx
	t.OffsetY += dy
}

// Reset restores Scale to Base and zeroes the offset.
func (t *StickerTransform) Reset() {
	*t = NewStickerTransform(t.Base)
}

// Doubled reports whether the sticker is currently shown at twice its base size.
func (t StickerTransform) Doubled() bool {
	return t.Scale == t.Base*2
}

// --- Affine math for the scene graph ---

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform computes the local affine matrix from the node's
// transform properties. Returns [a, b, c, d, tx, ty].
//
//	Translate(-PivotX, -PivotY) -> Scale -> Translate(X, Y)
func computeLocalTransform(n *Node) [6]float64 {
	sx, sy := n.ScaleX, n.ScaleY
	return [6]float64{sx, 0, 0, sy, n.X - n.PivotX*sx, n.Y - n.PivotY*sy}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// updateWorldTransform recomputes worldTransform and worldAlpha for n and its
// descendants. A recomputed parent forces recomputation of every child.
func updateWorldTransform(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = multiplyAffine(parentTransform, computeLocalTransform(n))
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}
	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, n.worldAlpha, recompute)
	}
}

// SetPosition sets the node's local X and Y and marks it dirty.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
	n.transformDirty = true
}

// SetScale sets the node's ScaleX and ScaleY and marks it dirty.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX = sx
	n.ScaleY = sy
	n.transformDirty = true
}

// SetAlpha sets the node's alpha and marks it dirty.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
	n.transformDirty = true
}

// MarkDirty forces recomputation of the node's transform on the next frame.
// Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return transformPoint(invertAffine(n.worldTransform), wx, wy)
}
