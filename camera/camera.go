// Package camera provides view and projection matrices in Vulkan's
// clip-space conventions: depth in [0, 1] and Y pointing down.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the current projection and view transforms. The zero
// value has identity transforms.
type Camera struct {
	projection  mgl32.Mat4
	view        mgl32.Mat4
	inverseView mgl32.Mat4
}

func New() *Camera {
	return &Camera{
		projection:  mgl32.Ident4(),
		view:        mgl32.Ident4(),
		inverseView: mgl32.Ident4(),
	}
}

// SetOrthographicProjection maps the box [left,right]x[top,bottom]x
// [near,far] onto Vulkan clip space.
func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	var m mgl32.Mat4
	m[0] = 2 / (right - left)
	m[5] = 2 / (bottom - top)
	m[10] = 1 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(bottom + top) / (bottom - top)
	m[14] = -near / (far - near)
	m[15] = 1
	c.projection = m
}

// SetPerspectiveProjection sets a perspective projection with the given
// vertical field of view in radians.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) {
	tanHalfFovy := float32(math.Tan(float64(fovy) / 2))

	var m mgl32.Mat4
	m[0] = 1 / (aspect * tanHalfFovy)
	m[5] = 1 / tanHalfFovy
	m[10] = far / (far - near)
	m[11] = 1
	m[14] = -(far * near) / (far - near)
	c.projection = m
}

// SetViewDirection orients the camera at position looking along
// direction, which must be non-zero.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setViewBasis(u, v, w, position)
}

// SetViewTarget orients the camera at position looking at target.
func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera from Tait-Bryan angles applied in
// Y, X, Z order, matching scene transforms.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3 := float32(math.Cos(float64(rotation.Z())))
	s3 := float32(math.Sin(float64(rotation.Z())))
	c2 := float32(math.Cos(float64(rotation.X())))
	s2 := float32(math.Sin(float64(rotation.X())))
	c1 := float32(math.Cos(float64(rotation.Y())))
	s1 := float32(math.Sin(float64(rotation.Y())))

	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}
	c.setViewBasis(u, v, w, position)
}

func (c *Camera) setViewBasis(u, v, w, position mgl32.Vec3) {
	view := mgl32.Ident4()
	view[0] = u.X()
	view[4] = u.Y()
	view[8] = u.Z()
	view[1] = v.X()
	view[5] = v.Y()
	view[9] = v.Z()
	view[2] = w.X()
	view[6] = w.Y()
	view[10] = w.Z()
	view[12] = -u.Dot(position)
	view[13] = -v.Dot(position)
	view[14] = -w.Dot(position)
	c.view = view

	inverse := mgl32.Ident4()
	inverse[0] = u.X()
	inverse[1] = u.Y()
	inverse[2] = u.Z()
	inverse[4] = v.X()
	inverse[5] = v.Y()
	inverse[6] = v.Z()
	inverse[8] = w.X()
	inverse[9] = w.Y()
	inverse[10] = w.Z()
	inverse[12] = position.X()
	inverse[13] = position.Y()
	inverse[14] = position.Z()
	c.inverseView = inverse
}

func (c *Camera) Projection() mgl32.Mat4  { return c.projection }
func (c *Camera) View() mgl32.Mat4        { return c.view }
func (c *Camera) InverseView() mgl32.Mat4 { return c.inverseView }

// Position is the camera's world-space position.
func (c *Camera) Position() mgl32.Vec3 {
	return mgl32.Vec3{c.inverseView[12], c.inverseView[13], c.inverseView[14]}
}
