package frame

import "fmt"

// Status is the result of a frame-control operation.
type Status int

const (
	// StatusNone means the operation was applied.
	StatusNone Status = iota
	// StatusThreadNotAlive means the thread has not started or has terminated.
	StatusThreadNotAlive
	// StatusThreadSuspended means the thread is already suspended.
	StatusThreadSuspended
	// StatusThreadNotSuspended means the operation requires a suspended thread.
	StatusThreadNotSuspended
	// StatusNoMoreFrames means there is no poppable frame with a caller.
	StatusNoMoreFrames
	// StatusOpaqueFrame means the frame cannot be popped.
	StatusOpaqueFrame
	// StatusInternal is an unexpected failure of the service.
	StatusInternal
)

var statusNames = map[Status]string{
	StatusNone:               "NONE",
	StatusThreadNotAlive:     "THREAD_NOT_ALIVE",
	StatusThreadSuspended:    "THREAD_SUSPENDED",
	StatusThreadNotSuspended: "THREAD_NOT_SUSPENDED",
	StatusNoMoreFrames:       "NO_MORE_FRAMES",
	StatusOpaqueFrame:        "OPAQUE_FRAME",
	StatusInternal:           "INTERNAL",
}

// OK reports whether the operation succeeded.
func (s Status) OK() bool {
	return s == StatusNone
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}
