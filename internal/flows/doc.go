// Package flows contains dependency-injected orchestrators for the engine's
// multi-step operations: login and the two halves of password reset.
//
// Each flow takes a typed dependency struct of function fields and returns
// results without side-effects beyond those dependencies, so every branch can
// be exercised with stubs. The engine owns the stores, throttles and
// dispatchers; flows only sequence calls to them.
//
// This package must not import mailAuth.
package flows
