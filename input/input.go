// Package input translates keyboard state into camera-object movement.
package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/pyrite-engine/pyrite/scene"
)

// KeyMappings binds movement and look controls to SDL scancodes.
type KeyMappings struct {
	MoveLeft     sdl.Scancode
	MoveRight    sdl.Scancode
	MoveForward  sdl.Scancode
	MoveBackward sdl.Scancode
	MoveUp       sdl.Scancode
	MoveDown     sdl.Scancode
	LookLeft     sdl.Scancode
	LookRight    sdl.Scancode
	LookUp       sdl.Scancode
	LookDown     sdl.Scancode
}

// DefaultKeyMappings is WASD+QE movement with arrow-key look.
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveLeft:     sdl.SCANCODE_A,
		MoveRight:    sdl.SCANCODE_D,
		MoveForward:  sdl.SCANCODE_W,
		MoveBackward: sdl.SCANCODE_S,
		MoveUp:       sdl.SCANCODE_E,
		MoveDown:     sdl.SCANCODE_Q,
		LookLeft:     sdl.SCANCODE_LEFT,
		LookRight:    sdl.SCANCODE_RIGHT,
		LookUp:       sdl.SCANCODE_UP,
		LookDown:     sdl.SCANCODE_DOWN,
	}
}

const maxPitch = 1.5

// Controller moves a transform on the XZ plane from keyboard state.
type Controller struct {
	Keys      KeyMappings
	MoveSpeed float32
	LookSpeed float32
}

func NewController() *Controller {
	return &Controller{
		Keys:      DefaultKeyMappings(),
		MoveSpeed: 3,
		LookSpeed: 1.5,
	}
}

func pressed(state []uint8, code sdl.Scancode) bool {
	return int(code) < len(state) && state[code] != 0
}

// MoveInPlaneXZ applies one tick of movement to transform. state is the
// SDL keyboard state slice; dt is the frame delta in seconds.
func (c *Controller) MoveInPlaneXZ(state []uint8, dt float32, transform *scene.TransformComponent) {
	var rotate mgl32.Vec3
	if pressed(state, c.Keys.LookRight) {
		rotate[1] += 1
	}
	if pressed(state, c.Keys.LookLeft) {
		rotate[1] -= 1
	}
	if pressed(state, c.Keys.LookUp) {
		rotate[0] += 1
	}
	if pressed(state, c.Keys.LookDown) {
		rotate[0] -= 1
	}

	if rotate.LenSqr() > 1e-12 {
		transform.Rotation = transform.Rotation.Add(rotate.Normalize().Mul(c.LookSpeed * dt))
	}

	// Keep pitch bounded and yaw in one revolution.
	transform.Rotation[0] = clamp(transform.Rotation[0], -maxPitch, maxPitch)
	transform.Rotation[1] = float32(math.Mod(float64(transform.Rotation[1]), 2*math.Pi))

	yaw := transform.Rotation.Y()
	forward := mgl32.Vec3{float32(math.Sin(float64(yaw))), 0, float32(math.Cos(float64(yaw)))}
	right := mgl32.Vec3{forward.Z(), 0, -forward.X()}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	if pressed(state, c.Keys.MoveForward) {
		move = move.Add(forward)
	}
	if pressed(state, c.Keys.MoveBackward) {
		move = move.Sub(forward)
	}
	if pressed(state, c.Keys.MoveRight) {
		move = move.Add(right)
	}
	if pressed(state, c.Keys.MoveLeft) {
		move = move.Sub(right)
	}
	if pressed(state, c.Keys.MoveUp) {
		move = move.Add(up)
	}
	if pressed(state, c.Keys.MoveDown) {
		move = move.Sub(up)
	}

	if move.LenSqr() > 1e-12 {
		transform.Translation = transform.Translation.Add(move.Normalize().Mul(c.MoveSpeed * dt))
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
