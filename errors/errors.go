package errors

import "fmt"

var (
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrStoreClosed  = fmt.Errorf("message store is closed")
	ErrViewClosed   = fmt.Errorf("chat view is closed")
	ErrCorruptEntry = fmt.Errorf("corrupt message entry")
)
