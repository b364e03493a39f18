// Package pkg provides the libraries behind overlay3d, a renderer that lays
// text out on a 3D ring or line and composites it over video.
//
// # Overview
//
// The pkg directory is organized into three areas:
//
//  1. Rendering: [geom], [fonts], [raster], [composite] and [scene]
//  2. Layout: [glyph], [layout] and [occlusion]
//  3. Services: [pipeline], [video], [storage], [stats], [cache] and [api]
//
// # Architecture
//
// The data flow for one render:
//
//	glyph.Params (text, color, radius, tilt, mode)
//	         ↓
//	    [layout] engine (circular ring or linear row of glyph nodes)
//	         ↓
//	    [scene] host (camera, lights, root group, occlusion mask)
//	         ↓
//	    [raster] software renderer (depth-tested text quads)
//	         ↓
//	    PNG preview, VP9 overlay or H.264 composition ([video])
//
// # Quick Start
//
// Render a transparent preview:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/overlay3d/pkg/glyph"
//	    "github.com/matzehuels/overlay3d/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Preview(context.Background(), pipeline.Options{
//	    Params: glyph.Params{Text: "HELLO WORLD", Color: "#ffcc00"},
//	})
//	os.WriteFile("preview.png", res.PNG, 0644)
//
// Burn an animated overlay into a video:
//
//	res, err := runner.Compose(ctx, pipeline.Options{
//	    Params:     glyph.Params{Text: "SPIN"},
//	    VideoPath:  "clip.mp4",
//	    OutputPath: "result.mp4",
//	})
//
// # Main Packages
//
// [scene] - Scene graph host with an interactive and an export renderer
// sharing one camera. Nodes carry text, lights or depth-only volumes.
//
// [layout] - Circular and linear layout engines. Both reuse their glyph nodes
// across updates and never fail on malformed parameters.
//
// [occlusion] - An invisible open cylinder that writes depth so text behind a
// subject is hidden.
//
// [composite] - Merges a video frame with an export render at the export
// resolution.
//
// [pipeline] - Preview, overlay and compose runs shared by the CLI and the
// HTTP API, with previews cached by parameters and video identity.
//
// [api] - The HTTP service: uploads, previews, overlays, rendering, stats and
// downloads.
//
// [stats] - Usage counters with file, Redis and MongoDB stores.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -tags integration ./pkg/...  # Include ffmpeg, Redis and MongoDB tests
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/geom
// [fonts]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/fonts
// [raster]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/raster
// [composite]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/composite
// [scene]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/scene
// [glyph]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/glyph
// [layout]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/layout
// [occlusion]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/occlusion
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/pipeline
// [video]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/video
// [storage]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/storage
// [stats]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/stats
// [cache]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/cache
// [api]: https://pkg.go.dev/github.com/matzehuels/overlay3d/pkg/api
package pkg
