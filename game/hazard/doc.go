// Package hazard implements the bombs that drift across the play area.
//
// A bomb explodes once: when its fuse runs out, when it is clicked, or when
// its bounds overlap the car being dragged. Whether an explosion costs the
// player a penalty is a Policy decision per cause. Positions are in the
// play-area frame.
package hazard
