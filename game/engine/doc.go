// Package engine implements the drag-and-match core of the silhouette game.
//
// A Board owns the shapes (cars), slots (silhouettes) and forbidden zones of
// one round. Each shape is driven by a Draggable through three states:
//
//	Idle -> Dragging -> Idle | Locked
//
// While dragging, positions are clamped to the play area and flagged when
// they enter a forbidden zone. On release the shape is pushed out of any
// zone, the target slot is resolved (explicit hint or the slot under the
// pointer) and the Matcher decides whether it fits: same tag, close enough,
// rotation and per-axis scale within tolerance. An accepted shape is snapped
// onto the slot anchor and locked for the rest of the round.
//
// Only one shape can be dragged at a time per board. The DragSession holds
// that shape and is what hazards query to learn what is being carried.
//
// Usage:
//
//	b := engine.NewBoard(engine.BoardOptions{
//		PlayArea: geom.Centered(geom.Vec2{}, geom.V(1600, 900)),
//		Settings: engine.DefaultDragSettings(),
//	})
//	b.AddSlot(&engine.Slot{ID: "s1", Tag: engine.TagTaxi, Size: geom.V(120, 60),
//		Tolerances: engine.DefaultTolerances()})
//	b.AddShape(&engine.Shape{ID: "c1", Tag: engine.TagTaxi, Size: geom.V(120, 60)})
//
//	b.BeginDrag("c1", geom.Vec2{})
//	b.UpdateDrag(geom.V(10, 0), engine.Manipulation{})
//	out, _ := b.EndDrag(geom.V(10, 0), "s1")
//
// Level files are described by LevelConfig; ApplyDefaults fills unset
// fields and ValidateLevelConfig reports every problem at once.
package engine
