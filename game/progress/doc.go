// Package progress tracks how a round is going: matched slots, penalties and
// the referee that turns them into a win or a loss.
//
// Listeners are registered explicitly and get a Handle back; Cancel removes
// the listener. Callbacks run after internal locks are released, so a
// listener may call back into the aggregator.
package progress
