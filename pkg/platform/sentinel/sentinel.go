package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist (also how a store reports "already absent")
//   - ErrExpired: stored session or token is past its lifetime
//   - ErrInvalidState: record exists but cannot serve the requested operation
//   - ErrUnavailable: backend or store temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
