// Package play runs one round of a level.
//
// New builds the board from a LevelConfig: slots and cars are given a random
// look, planned into the play area and registered on an engine.Board. Matches
// feed a progress.Progress, explosions feed progress.Penalties and a
// progress.Referee decides the round. Every input method returns the events
// it produced so transports can forward them.
//
// A Round is safe for concurrent use.
package play
