// Package layout scatters shapes and slots across the play area.
//
// Planner.Plan samples uniformly random points inside the padded play rect
// and keeps the first point that is outside every forbidden rect and far
// enough from the points already accepted. When the attempt budget runs out
// the spacing is halved, then ignored; forbidden rects are never relaxed.
// A deterministic grid sweep over the padded rect and then the whole area
// catches free ground the random samples missed. Only items with no free
// cell at all come back with TierUnplaced.
//
// All randomness comes from a seeded PCG source, so the same seed yields the
// same layout. SeedFrom derives a seed from strings such as a session id and
// level name.
package layout
