package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent places an object in the world. Rotation is
// Tait-Bryan Y, then X, then Z, matching the camera's view convention.
type TransformComponent struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

// NewTransform returns a transform with unit scale.
func NewTransform() TransformComponent {
	return TransformComponent{Scale: mgl32.Vec3{1, 1, 1}}
}

// Mat4 composes translation * Ry * Rx * Rz * scale.
func (t TransformComponent) Mat4() mgl32.Mat4 {
	c3 := float32(math.Cos(float64(t.Rotation.Z())))
	s3 := float32(math.Sin(float64(t.Rotation.Z())))
	c2 := float32(math.Cos(float64(t.Rotation.X())))
	s2 := float32(math.Sin(float64(t.Rotation.X())))
	c1 := float32(math.Cos(float64(t.Rotation.Y())))
	s1 := float32(math.Sin(float64(t.Rotation.Y())))

	sx, sy, sz := t.Scale.X(), t.Scale.Y(), t.Scale.Z()

	return mgl32.Mat4{
		sx * (c1*c3 + s1*s2*s3), sx * (c2 * s3), sx * (c1*s2*s3 - c3*s1), 0,
		sy * (c3*s1*s2 - c1*s3), sy * (c2 * c3), sy * (c1*c3*s2 + s1*s3), 0,
		sz * (c2 * s1), sz * (-s2), sz * (c1 * c2), 0,
		t.Translation.X(), t.Translation.Y(), t.Translation.Z(), 1,
	}
}

// NormalMatrix is the inverse-transpose of the model matrix's upper 3x3,
// widened to a Mat4 for push-constant layout.
func (t TransformComponent) NormalMatrix() mgl32.Mat4 {
	c3 := float32(math.Cos(float64(t.Rotation.Z())))
	s3 := float32(math.Sin(float64(t.Rotation.Z())))
	c2 := float32(math.Cos(float64(t.Rotation.X())))
	s2 := float32(math.Sin(float64(t.Rotation.X())))
	c1 := float32(math.Cos(float64(t.Rotation.Y())))
	s1 := float32(math.Sin(float64(t.Rotation.Y())))

	ix, iy, iz := 1/t.Scale.X(), 1/t.Scale.Y(), 1/t.Scale.Z()

	return mgl32.Mat4{
		ix * (c1*c3 + s1*s2*s3), ix * (c2 * s3), ix * (c1*s2*s3 - c3*s1), 0,
		iy * (c3*s1*s2 - c1*s3), iy * (c2 * c3), iy * (c1*c3*s2 + s1*s3), 0,
		iz * (c2 * s1), iz * (-s2), iz * (c1 * c2), 0,
		0, 0, 0, 1,
	}
}
