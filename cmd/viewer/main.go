// Command viewer is the engine's demo application: it loads OBJ meshes,
// sets up a lit scene and runs the interactive frame loop.
package main

import (
	"flag"
	"log"
)

func main() {
	assets := flag.String("assets", "assets", "directory containing shaders/ and meshes/")
	pipelineCache := flag.String("pipeline-cache", "", "path for the persistent pipeline cache (empty disables)")
	validation := flag.Bool("validation", false, "enable Vulkan validation layers")
	flag.Parse()

	app, err := newApp(appOptions{
		AssetDir:          *assets,
		PipelineCachePath: *pipelineCache,
		Validation:        *validation,
	})
	if err != nil {
		log.Fatalf("viewer: %+v", err)
	}
	defer app.Destroy()

	if err := app.Run(); err != nil {
		log.Fatalf("viewer: %+v", err)
	}
}
