// Package seamcarve narrows images by content-aware seam carving.
//
// # Overview
//
// A seam is a top-to-bottom path of pixels, one per row, where consecutive
// rows differ by at most one column. Reducing width by N removes the N
// cheapest seams one at a time, recomputing energy after every removal so
// that low-detail regions shrink while edges and texture survive.
//
// # Quick Start
//
//	src, _ := seamcarve.FromImage(img)
//	r := seamcarve.NewReducer(seamcarve.WithProgress(seamcarve.LogSink{}))
//	out, err := r.Reduce(src, src.Width()*3/4, seamcarve.DynamicProgramming)
//
// Raw buffers work the same way:
//
//	data, width, err := seamcarve.ReduceWidth(rgb, w, h, 3, target, seamcarve.Greedy)
//
// # Energy Backends
//
// [CPUEnergy] computes Sobel magnitude on luminance and leaves border pixels
// at zero. The gpu sub-package provides render-to-texture and compute
// variants of the same kernel that assign border pixels 1000 instead, which
// keeps seams off the image edges. The two policies are deliberately kept
// distinct, so reductions near the borders may differ between backends.
//
// Backends are selected by name through [OpenBackend]; importing the gpu
// package registers "gpu-render" and "gpu-compute".
//
// # Seam Search
//
// [Greedy] follows the cheapest neighbour from the cheapest top pixel.
// [DynamicProgramming] returns the globally cheapest seam. Both break ties
// the same way: leftmost in the first/last row, then centre, left, right.
//
// # Logging
//
// The package is silent by default. Call [SetLogger] to route diagnostics
// through log/slog, and pass [LogSink] to [WithProgress] to log progress.
package seamcarve
