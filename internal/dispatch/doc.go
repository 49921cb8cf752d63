// Package dispatch implements the bounded, asynchronous relay used for
// outgoing mail and audit events.
//
// A [Dispatcher] owns one goroutine and one buffered channel. Producers never
// wait on the consumer's I/O: with DropIfFull a saturated buffer drops the item
// and increments a counter that the metrics exporters surface. Close drains
// what is already queued.
//
// The package does not decide what to send. It must not import the root
// package or any sibling internal package.
package dispatch
