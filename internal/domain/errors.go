// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed arguments or an unknown tool name.
var ErrValidation = errors.New("validation failed")

// ErrPolicyDenied indicates an explicit deny decision from the policy engine.
var ErrPolicyDenied = errors.New("denied by policy")

// ErrTimeout indicates a deadline fired before the operation finished.
var ErrTimeout = errors.New("deadline exceeded")

// ErrInfrastructure indicates an internal fault in the bus or scheduler.
// This is the only error class that escapes a tool call's terminal state
// and propagates as a session-level failure.
var ErrInfrastructure = errors.New("infrastructure fault")
