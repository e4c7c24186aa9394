package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and connectors return these
// (optionally wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: concurrent writer won; caller lost a compare-and-set
// - ErrExpired: listing or token past its expiry
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: external collaborator temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
