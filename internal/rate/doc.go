// Package rate implements the login throttle: a per-identifier fixed-window
// counter in Redis.
//
// # Window semantics
//
// INCR and a first-hit PEXPIRE run in one Lua script. The TTL is fixed when the
// counter is created and never refreshed, so the window closes one Window
// after the first attempt. Keys are "al:<lowercased identifier>".
//
// Policy (what counts as an attempt, what happens when blocked) belongs to the
// caller.
package rate
