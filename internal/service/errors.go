// Package service provides business logic implementations.
package service

import "errors"

// User-caused failures, surfaced verbatim by the delivery layer with
// remediation text. None of these are retried.
var (
	ErrUnknownAction       = errors.New("unknown action")
	ErrActionCapReached    = errors.New("action claim cap reached")
	ErrUnknownReward       = errors.New("unknown reward")
	ErrPrerequisiteMissing = errors.New("prerequisite reward not owned")
	ErrAlreadyOwned        = errors.New("reward already owned")
	ErrInsufficientFunds   = errors.New("insufficient coin balance")
	ErrStrayAlreadyClaimed = errors.New("stray coin already claimed recently")
	ErrReconcileBusy       = errors.New("reconciliation already running")
)
