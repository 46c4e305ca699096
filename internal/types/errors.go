package types

import "errors"

// Sentinel errors for RouteKeeper operations.
var (
	// ErrMalformedPath indicates a pointer path that does not start with '/'
	// or contains an empty token.
	ErrMalformedPath = errors.New("malformed pointer path")

	// ErrPathTooDeep indicates a pointer path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("pointer path exceeds maximum depth")

	// ErrParentNotObject indicates a write through an intermediate node that
	// exists but is not an object.
	ErrParentNotObject = errors.New("intermediate node is not an object")

	// ErrNotAnArray indicates an append to an existing non-array node.
	ErrNotAnArray = errors.New("existing node is not an array")

	// ErrMergeMissingField indicates a merge endpoint does not exist.
	ErrMergeMissingField = errors.New("merge endpoint does not exist")

	// ErrMergeTypeMismatch indicates merge endpoints of different or
	// non-composite types.
	ErrMergeTypeMismatch = errors.New("merge endpoints must both be objects or both arrays")

	// ErrEventTooLarge indicates a raw event exceeds MaxEventSize.
	ErrEventTooLarge = errors.New("event exceeds maximum size")

	// ErrNotRunning indicates an operation that requires a started router.
	ErrNotRunning = errors.New("the router queue is not initialized")

	// ErrQueueFull indicates the ingress queue rejected a non-blocking
	// enqueue. Callers implement backpressure.
	ErrQueueFull = errors.New("the router queue is in high load")

	// ErrAlreadyRunning indicates run was called on a running router.
	ErrAlreadyRunning = errors.New("the router is already running")
)
