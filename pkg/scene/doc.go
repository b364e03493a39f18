// Package scene hosts the 3D overlay scene: a node graph, a perspective camera,
// two lights and two independent renderers.
//
// The interactive renderer draws into the host's surface with a clamped pixel
// ratio. The export renderer owns its own preserved buffer at a fixed resolution
// and feeds the [composite.Compositor], so capturing frames for export never
// disturbs the interactive view.
//
// Layout engines attach their groups to [Host.Root]. Rendering always starts
// from a transparent clear.
package scene
