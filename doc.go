// Package animir is the offline compiler and render-command generator for
// a Lottie-subset animation runtime.
//
// It ingests a "scene package" (a scene descriptor plus one or more
// Lottie-format animation JSON files and a directory of image assets) and
// produces a validation report plus an intermediate representation (IR)
// suitable for driving a GPU render loop. From the IR it generates, per
// frame, an ordered list of render commands (transform pushes/pops, mask
// begin/end, draw-image, draw-shape, draw-stroke, matte scopes, group
// structure) that an external rasteriser executes.
//
// # Pipeline
//
// Loading and decoding a scene package is the caller's responsibility
// (package layout discovery, JSON parsing, image decoding are external
// collaborators, referenced here only through their contracts). Given a
// decoded [LottieJSON] and [Scene] descriptor:
//
//	issues := ValidateScene(scene, SceneValidatorOptions{})
//	animIssues := ValidateAnim(animRef, lottie, scene, DefaultAnimValidatorOptions())
//	registry := NewPathRegistry()
//	ir, err := Compile(animRef, lottie, bindingKey, registry, myTriangulator)
//	commands := RenderCommands(ir, frameIndex, Identity())
//	renderIssues := ir.RenderIssues()
//
// myTriangulator is the caller's own [Triangulator] implementation; animir
// has no built-in earcut-shaped triangulator.
//
// Compilation and rendering are pure, synchronous functions with no I/O,
// no coroutines, and no shared mutable state beyond the
// [PathRegistry] generation counter (see § Concurrency in spec.md).
//
// # Non-goals
//
// animir does not animate arbitrary Lottie features — only a documented
// subset is supported, and anything else is rejected with a precise
// diagnostic. It does not schedule runtime playback, manipulate image
// pixels, or track interactive editing state.
package animir
