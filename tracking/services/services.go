// Package services implements the tracking operations: producer
// registration, batch construction and sealing, checkpoint recording and
// the derived read views. Every state-changing call takes the acting
// operator's Session explicitly.
package services

import (
	"errors"
	"fmt"
	"time"

	"export-tracking-service/tracking/models"
)

var (
	ErrUnauthenticated    = errors.New("login required")
	ErrRoutingUnavailable = errors.New("route planning is not configured")
)

// ValidationError reports a rejected input field. Nothing is persisted when
// one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func requireSession(session models.Session) error {
	if !session.Valid() {
		return ErrUnauthenticated
	}
	return nil
}

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
