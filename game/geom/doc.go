// Package geom provides the 2D geometry used by the silhouette matching engine.
//
// The package is pure and stateless. It covers:
//   - Vec2 arithmetic and distances
//   - Axis-aligned rectangles (containment, clamping, overlap, insets)
//   - Nested coordinate frames (drag space, play area, world)
//   - Corner extraction and bounding boxes of rotated rectangles
//   - Shortest signed angular difference
//
// Frames:
//
// A Frame places a local coordinate system inside its parent by translation,
// rotation (degrees, counter-clockwise) and non-uniform scale. A nil *Frame is
// the world frame, so every method is safe to call on nil.
//
// Usage:
//
//	play := &geom.Frame{Position: geom.V(640, 360)}
//	cars := &geom.Frame{Parent: play}
//
//	world := cars.ToWorld(geom.V(10, 20))
//	local := geom.Convert(cars, play, geom.V(10, 20))
//
//	zone := geom.BoundsIn(play, nil, geom.Centered(geom.V(0, 0), geom.V(100, 40)))
//	inside := zone.Contains(local)
package geom
