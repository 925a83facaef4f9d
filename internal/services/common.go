package services

import (
	"errors"
	"fmt"
	"time"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/events"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
	"rent-backend/internal/timeutil"
)

// Clock returns the current instant. Services default to timeutil.Now.
type Clock func() time.Time

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return timeutil.Now
	}
	return c
}

// publish forwards e when a publisher is configured
func publish(p events.Publisher, e events.Event) {
	if p != nil {
		p.Publish(e)
	}
}

func requireOwner(actor *models.User) error {
	if actor == nil || !actor.IsOwner {
		return apperrors.Unauthorized("only the owner can perform this action")
	}
	return nil
}

// notFound turns repositories.ErrNotFound into a NotFound error and wraps anything else.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
