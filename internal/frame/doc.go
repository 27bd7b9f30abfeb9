// Package frame provides a cooperative thread runtime whose top-most call
// frame can be popped from outside the thread.
//
// A Thread runs a body on its own goroutine and keeps an explicit stack of
// frames. Methods that should be poppable are called through Invoke, which
// records the argument values of the call. The thread can only be suspended
// or unwound at a safepoint: a call to Thread.Safepoint or a wait performed
// through Thread.WaitUntil.
//
// The Service interface exposes the three frame-control operations:
//
//	svc := frame.NewAgent(logger)
//	if st := svc.Suspend(t); !st.OK() { ... }
//	if st := svc.PopFrame(t); !st.OK() { ... }
//	if st := svc.Resume(t); !st.OK() { ... }
//
// # Pop semantics
//
// PopFrame marks the top frame of a suspended thread. Once the thread is
// resumed it unwinds that frame at its current safepoint and the caller
// re-invokes the method with the argument values of the original call.
// Everything the popped activation wrote outside its frame is kept.
//
// # Notifications
//
// A Listener attached with Agent.SetListener receives method entry and exit
// notifications. A popped activation never produces an exit notification,
// and the pop operation itself posts nothing.
package frame
