// Package persist stores small numeric preferences and uses them to keep car
// transforms between rounds.
//
// Keys are flat strings. A transform saved under key "DragCar_sedan" becomes
// five entries: DragCar_sedan_px, _py, _rz, _sx and _sy.
package persist
