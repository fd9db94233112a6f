package collision

import (
	"errors"
	"fmt"
)

// Registry and membership errors. They are returned wrapped with the
// offending name; test with errors.Is.
var (
	ErrDuplicateLayerName = errors.New("duplicate layer name")
	ErrUnknownLayerName   = errors.New("unknown layer name")
	ErrInvalidLayerName   = errors.New("invalid layer name")
	ErrDefaultLayer       = errors.New("the default layer cannot be removed")
	ErrNilActor           = errors.New("nil actor")
	ErrUpdateInProgress   = errors.New("operation not allowed while an update is in progress")
)

// DispatchError reports an OnCollision callback that failed during Update.
// Actor is the receiver of the failed call and Other the actor it was told
// about.
type DispatchError struct {
	Actor Actor
	Other Actor
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("collision dispatch to %T (other %T): %v", e.Actor, e.Other, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// PanicError carries the value recovered from a panicking callback.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("callback panicked: %v", e.Value)
}
