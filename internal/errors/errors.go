package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrUnauthorized - sender is not the configured principal (reject + alert, never surfaced as a system error)
	ErrUnauthorized = errors.New("unauthorized sender")

	// ErrAgentDispatch - external agent call failed or timed out (session kept, user informed)
	ErrAgentDispatch = errors.New("agent dispatch failed")

	// ErrFormatDelivery - rich-text delivery rejected by the transport for formatting syntax (retry as plain text)
	ErrFormatDelivery = errors.New("formatting delivery failed")

	// ErrDeliveryFailed - both delivery levels failed (fatal for the exchange, not the process)
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrSessionState - append/destroy attempted with no backing session (no-op, logged)
	ErrSessionState = errors.New("session state inconsistency")

	// ErrDuplicateEvent - duplicate inbound event detected (dropped silently)
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrInvalidInput - malformed input (validation error)
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient - transient error (retry hint)
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error (generic message)
	ErrInternal = errors.New("internal error")
)
