// Package scene holds the world: objects with transforms plus the mesh
// and point-light component tables the render systems iterate.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pyrite-engine/pyrite/mesh"
)

// ObjectID identifies an object within one Scene.
type ObjectID uint32

// IDAllocator hands out object IDs. Each Scene owns its own allocator so
// IDs are scene-scoped, not process-global.
type IDAllocator struct {
	next ObjectID
}

func (a *IDAllocator) Next() ObjectID {
	id := a.next
	a.next++
	return id
}

// MeshComponent attaches renderable geometry to an object.
type MeshComponent struct {
	Model mesh.Handle
}

// PointLightComponent makes an object emit light from its translation.
type PointLightComponent struct {
	Intensity float32
	Radius    float32
}

// Object is one scene entity: identity, placement and base color.
// Optional behavior lives in the scene's component tables, not here.
type Object struct {
	ID        ObjectID
	Transform TransformComponent
	Color     mgl32.Vec3
}

// Scene owns the object table and sparse per-component tables. Component
// presence is a table lookup, never a nil check on the object.
type Scene struct {
	ids     IDAllocator
	objects map[ObjectID]*Object
	order   []ObjectID

	meshes      map[ObjectID]*MeshComponent
	pointLights map[ObjectID]*PointLightComponent
}

func New() *Scene {
	return &Scene{
		objects:     make(map[ObjectID]*Object),
		meshes:      make(map[ObjectID]*MeshComponent),
		pointLights: make(map[ObjectID]*PointLightComponent),
	}
}

// NewObject creates an empty object with unit-scale transform and
// registers it.
func (s *Scene) NewObject() *Object {
	obj := &Object{
		ID:        s.ids.Next(),
		Transform: NewTransform(),
		Color:     mgl32.Vec3{1, 1, 1},
	}
	s.objects[obj.ID] = obj
	s.order = append(s.order, obj.ID)
	return obj
}

// NewPointLight creates an object carrying a point light component.
func (s *Scene) NewPointLight(intensity float32) *Object {
	obj := s.NewObject()
	obj.Transform.Scale = mgl32.Vec3{0.1, 1, 1}
	s.pointLights[obj.ID] = &PointLightComponent{
		Intensity: intensity,
		Radius:    obj.Transform.Scale.X(),
	}
	return obj
}

// Get returns the object for id, or nil.
func (s *Scene) Get(id ObjectID) *Object {
	return s.objects[id]
}

// SetMesh attaches (or replaces) the mesh component of id.
func (s *Scene) SetMesh(id ObjectID, c MeshComponent) {
	if _, ok := s.objects[id]; !ok {
		return
	}
	s.meshes[id] = &c
}

// Mesh looks up id's mesh component.
func (s *Scene) Mesh(id ObjectID) (*MeshComponent, bool) {
	c, ok := s.meshes[id]
	return c, ok
}

// SetPointLight attaches (or replaces) the point light component of id.
func (s *Scene) SetPointLight(id ObjectID, c PointLightComponent) {
	if _, ok := s.objects[id]; !ok {
		return
	}
	s.pointLights[id] = &c
}

// PointLight looks up id's point light component.
func (s *Scene) PointLight(id ObjectID) (*PointLightComponent, bool) {
	c, ok := s.pointLights[id]
	return c, ok
}

// Remove deletes the object and its components. The caller releases any
// mesh handle the component held.
func (s *Scene) Remove(id ObjectID) {
	if _, ok := s.objects[id]; !ok {
		return
	}
	delete(s.objects, id)
	delete(s.meshes, id)
	delete(s.pointLights, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// EachMesh visits objects with mesh components in creation order.
func (s *Scene) EachMesh(fn func(*Object, *MeshComponent)) {
	for _, id := range s.order {
		if c, ok := s.meshes[id]; ok {
			fn(s.objects[id], c)
		}
	}
}

// EachPointLight visits objects with point light components in creation
// order.
func (s *Scene) EachPointLight(fn func(*Object, *PointLightComponent)) {
	for _, id := range s.order {
		if c, ok := s.pointLights[id]; ok {
			fn(s.objects[id], c)
		}
	}
}
