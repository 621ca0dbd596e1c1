package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// User-facing replies for each agent failure category. The session is kept
// alive in all of these cases so the principal can retry without losing
// accumulated context.
const (
	ReplyRateLimited = "API Limit Reached: my AI engine is receiving too many requests right now or has reached its daily capacity. Please try again later!"
	ReplyBadAPIKey   = "Configuration Error: my API key seems to be invalid or expired. Please check the system environment settings."
	ReplyTasksAuth   = "Task Sync Error: I am having trouble accessing your task list. The authorization token might be expired."
	ReplyGeneric     = "System Error: my AI engine is currently unreachable or encountering an unexpected issue. Please try again in a moment!"
)

// ErrorMapper maps external errors to the Nova error taxonomy.
type ErrorMapper interface {
	MapError(err error) error
	UserReply(err error) string
	Category(err error) string
}

type DefaultErrorMapper struct{}

func NewDefaultErrorMapper() *DefaultErrorMapper {
	return &DefaultErrorMapper{}
}

// MapError maps external errors to Nova error categories.
func (m *DefaultErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrAgentDispatch)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "quota"), strings.Contains(errStr, "429"), strings.Contains(errStr, "exhausted"), strings.Contains(errStr, "rate limit"):
		return fmt.Errorf("rate limited: %w", ErrAgentDispatch)

	case strings.Contains(errStr, "api_key"), strings.Contains(errStr, "api key"), strings.Contains(errStr, "key invalid"), strings.Contains(errStr, "403"):
		return fmt.Errorf("invalid credentials: %w", ErrAgentDispatch)

	case strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "invalid_grant"), strings.Contains(errStr, "401"):
		return fmt.Errorf("backend auth failed: %w", ErrAgentDispatch)

	case strings.Contains(errStr, "can't parse entities"), strings.Contains(errStr, "parse entities"):
		return fmt.Errorf("markup rejected: %w", ErrFormatDelivery)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"),
		strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("network error: %w", ErrTransient)

	case strings.Contains(errStr, "duplicate"):
		return fmt.Errorf("duplicate event: %w", ErrDuplicateEvent)

	default:
		return fmt.Errorf("internal error: %w", ErrInternal)
	}
}

// UserReply converts an agent dispatch failure into the message shown to the
// principal. Categorization mirrors the upstream provider failure modes:
// exhausted quota, bad API key, expired backend token, everything else.
func (m *DefaultErrorMapper) UserReply(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "quota"), strings.Contains(errStr, "429"), strings.Contains(errStr, "exhausted"), strings.Contains(errStr, "rate limit"):
		return ReplyRateLimited
	case strings.Contains(errStr, "api_key"), strings.Contains(errStr, "api key"), strings.Contains(errStr, "key invalid"), strings.Contains(errStr, "403"):
		return ReplyBadAPIKey
	case strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "invalid_grant"), strings.Contains(errStr, "401"):
		return ReplyTasksAuth
	default:
		return ReplyGeneric
	}
}

// Category returns the Nova error category name for an error.
func (m *DefaultErrorMapper) Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return "ErrUnauthorized"
	case errors.Is(err, ErrAgentDispatch):
		return "ErrAgentDispatch"
	case errors.Is(err, ErrFormatDelivery):
		return "ErrFormatDelivery"
	case errors.Is(err, ErrDeliveryFailed):
		return "ErrDeliveryFailed"
	case errors.Is(err, ErrSessionState):
		return "ErrSessionState"
	case errors.Is(err, ErrDuplicateEvent):
		return "ErrDuplicateEvent"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrTransient):
		return "ErrTransient"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to a specific category.
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Unauthorized wraps a message as unauthorized.
func Unauthorized(message string) error {
	return fmt.Errorf("%s: %w", message, ErrUnauthorized)
}

// InvalidInput wraps a message as invalid input.
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps a message as transient.
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps a message as internal.
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// SessionState wraps a message as a session state inconsistency.
func SessionState(message string) error {
	return fmt.Errorf("%s: %w", message, ErrSessionState)
}

// FormatDelivery wraps a message as a formatting delivery failure.
func FormatDelivery(message string) error {
	return fmt.Errorf("%s: %w", message, ErrFormatDelivery)
}
