package main

import (
	"math"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"

	"github.com/pyrite-engine/pyrite/camera"
	"github.com/pyrite-engine/pyrite/input"
	"github.com/pyrite-engine/pyrite/mesh"
	"github.com/pyrite-engine/pyrite/render"
	"github.com/pyrite-engine/pyrite/rendersys"
	"github.com/pyrite-engine/pyrite/scene"
	"github.com/pyrite-engine/pyrite/vkdriver"
	"github.com/pyrite-engine/pyrite/window"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

type appOptions struct {
	AssetDir          string
	PipelineCachePath string
	Validation        bool
}

type app struct {
	opts appOptions

	window   *window.Window
	driver   *vkdriver.Driver
	renderer *render.Renderer

	models *mesh.Arena
	world  *scene.Scene

	meshSystem  *rendersys.MeshSystem
	lightSystem *rendersys.PointLightSystem

	ubo        *rendersys.GlobalUBO
	cam        *camera.Camera
	controller *input.Controller
	viewer     *scene.Object
}

func newApp(opts appOptions) (*app, error) {
	a := &app{
		opts:       opts,
		models:     mesh.NewArena(),
		world:      scene.New(),
		ubo:        rendersys.NewGlobalUBO(),
		cam:        camera.New(),
		controller: input.NewController(),
	}

	var err error
	a.window, err = window.New("pyrite viewer", windowWidth, windowHeight)
	if err != nil {
		return nil, err
	}

	a.driver, err = vkdriver.New(a.window.SDLWindow(), vkdriver.Options{
		AppName:           "pyrite viewer",
		Validation:        opts.Validation,
		PipelineCachePath: opts.PipelineCachePath,
	})
	if err != nil {
		a.Destroy()
		return nil, err
	}

	a.renderer, err = render.NewRenderer(a.driver, a.window, render.RendererConfig{
		UniformBufferSize: a.ubo.Size(),
	})
	if err != nil {
		a.Destroy()
		return nil, err
	}

	if err := a.createRenderSystems(); err != nil {
		a.Destroy()
		return nil, err
	}
	if err := a.loadScene(); err != nil {
		a.Destroy()
		return nil, err
	}
	return a, nil
}

func (a *app) shader(name string) ([]byte, error) {
	path := filepath.Join(a.opts.AssetDir, "shaders", name)
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	return code, nil
}

func (a *app) createRenderSystems() error {
	meshVert, err := a.shader("simple.vert.spv")
	if err != nil {
		return err
	}
	meshFrag, err := a.shader("simple.frag.spv")
	if err != nil {
		return err
	}
	a.meshSystem, err = rendersys.NewMeshSystem(
		a.driver, a.renderer.RenderPass(), a.renderer.GlobalSetLayout(),
		a.models, meshVert, meshFrag)
	if err != nil {
		return err
	}

	lightVert, err := a.shader("point_light.vert.spv")
	if err != nil {
		return err
	}
	lightFrag, err := a.shader("point_light.frag.spv")
	if err != nil {
		return err
	}
	a.lightSystem, err = rendersys.NewPointLightSystem(
		a.driver, a.renderer.RenderPass(), a.renderer.GlobalSetLayout(),
		lightVert, lightFrag)
	return err
}

// loadScene decodes the OBJ files concurrently, then uploads them on this
// goroutine: buffer uploads go through the graphics queue, which is not
// safe for concurrent use.
func (a *app) loadScene() error {
	names := []string{"flat_vase.obj", "smooth_vase.obj", "quad.obj"}
	decoded := make([]*mesh.Data, len(names))

	var group errgroup.Group
	for i, name := range names {
		group.Go(func() error {
			data, err := mesh.LoadOBJ(filepath.Join(a.opts.AssetDir, "meshes", name))
			if err != nil {
				return err
			}
			decoded[i] = data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	handles := make([]mesh.Handle, len(decoded))
	for i, data := range decoded {
		model, err := mesh.NewModel(a.driver, data)
		if err != nil {
			return errors.Wrapf(err, "upload %s", names[i])
		}
		handles[i] = a.models.Add(model)
	}

	flatVase := a.world.NewObject()
	a.world.SetMesh(flatVase.ID, scene.MeshComponent{Model: handles[0]})
	flatVase.Transform.Translation = mgl32.Vec3{-0.5, 0.5, 0}
	flatVase.Transform.Scale = mgl32.Vec3{3, 1.5, 3}

	smoothVase := a.world.NewObject()
	a.world.SetMesh(smoothVase.ID, scene.MeshComponent{Model: handles[1]})
	smoothVase.Transform.Translation = mgl32.Vec3{0.5, 0.5, 0}
	smoothVase.Transform.Scale = mgl32.Vec3{3, 1.5, 3}

	floor := a.world.NewObject()
	a.world.SetMesh(floor.ID, scene.MeshComponent{Model: handles[2]})
	floor.Transform.Translation = mgl32.Vec3{0, 0.5, 0}
	floor.Transform.Scale = mgl32.Vec3{3, 1, 3}

	lightColors := []mgl32.Vec3{
		{1, 0.1, 0.1},
		{0.1, 0.1, 1},
		{0.1, 1, 0.1},
		{1, 1, 0.1},
		{0.1, 1, 1},
		{1, 1, 1},
	}
	for i, color := range lightColors {
		light := a.world.NewPointLight(0.8)
		light.Color = color
		angle := float32(i) * 2 * math.Pi / float32(len(lightColors))
		rotate := mgl32.HomogRotate3D(angle, mgl32.Vec3{0, -1, 0})
		p := rotate.Mul4x1(mgl32.Vec4{-1, -1, -1, 1})
		light.Transform.Translation = mgl32.Vec3{p.X(), p.Y(), p.Z()}
	}

	// The viewer object only carries the camera transform.
	a.viewer = a.world.NewObject()
	a.viewer.Transform.Translation = mgl32.Vec3{0, 0, -2.5}
	return nil
}

func (a *app) Run() error {
	lastTime := hrtime.Now()

	for !a.window.ShouldClose() {
		a.window.PollEvents()

		now := hrtime.Now()
		dt := float32((now - lastTime).Seconds())
		lastTime = now

		a.controller.MoveInPlaneXZ(sdl.GetKeyboardState(), dt, &a.viewer.Transform)
		a.cam.SetViewYXZ(a.viewer.Transform.Translation, a.viewer.Transform.Rotation)
		a.cam.SetPerspectiveProjection(mgl32.DegToRad(50), a.renderer.AspectRatio(), 0.1, 100)

		if err := a.drawFrame(dt); err != nil {
			return err
		}
		a.models.Collect(a.renderer.FrameCount())
	}

	return a.driver.WaitIdle()
}

func (a *app) drawFrame(dt float32) error {
	cmd, err := a.renderer.BeginFrame()
	if err != nil {
		return err
	}
	if cmd == nil {
		// Swapchain went stale during acquire; skip this frame.
		return nil
	}

	frame := a.renderer.CurrentFrame()
	info := rendersys.FrameInfo{
		FrameIndex:       a.renderer.FrameIndex(),
		DT:               dt,
		Cmd:              cmd,
		Camera:           a.cam,
		GlobalDescriptor: frame.Descriptor,
		Scene:            a.world,
	}

	if err := a.lightSystem.Update(info, a.ubo); err != nil {
		return err
	}
	a.ubo.SetCamera(a.cam)
	encoded, err := a.ubo.Encode()
	if err != nil {
		return err
	}
	if err := frame.WriteUniform(encoded); err != nil {
		return err
	}

	a.renderer.BeginSwapChainRenderPass(cmd)
	if err := a.meshSystem.Render(info); err != nil {
		return err
	}
	if err := a.lightSystem.Render(info); err != nil {
		return err
	}
	a.renderer.EndSwapChainRenderPass(cmd)

	return a.renderer.EndFrame()
}

func (a *app) Destroy() {
	if a.driver != nil {
		// Best effort; resources are torn down regardless.
		_ = a.driver.WaitIdle()
	}
	if a.meshSystem != nil {
		a.meshSystem.Destroy()
		a.meshSystem = nil
	}
	if a.lightSystem != nil {
		a.lightSystem.Destroy()
		a.lightSystem = nil
	}
	if a.models != nil {
		a.models.Destroy()
		a.models = nil
	}
	if a.renderer != nil {
		a.renderer.Destroy()
		a.renderer = nil
	}
	if a.driver != nil {
		a.driver.Destroy()
		a.driver = nil
	}
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
}
