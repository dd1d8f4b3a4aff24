// Package async bridges asynchronous foreign functions to blocking Go calls.
//
// An async foreign function receives its arguments, a completion context
// and a completion function, and returns at once. The foreign side later
// calls the completion function exactly once, from any goroutine, with the
// context and the result:
//
//	fut, cbCtx := async.Start[uint32](reg)
//	fn(arg, cbCtx, async.Trampoline[uint32](reg))
//	v, err := fut.Await(ctx)
//
// Each context moves Pending -> Completed. A second completion of the same
// context, or completion of a context that was never started, traps with
// errors.KindDoubleCompletion. Await resumes exactly one waiter.
//
// Cancelling the context passed to Await abandons the wait only; the foreign
// operation keeps running and its completion is still consumed.
package async
