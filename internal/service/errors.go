package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/ecoshop/internal/events"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrInternal           = errors.New("internal")            // 500
)

var kinds = []error{ErrValidation, ErrInvalidCredentials, ErrForbidden, ErrNotFound, ErrInternal}

// Message returns the detail a service attached to one of its sentinel
// errors, or the sentinel text when there is none.
func Message(err error) string {
	for _, kind := range kinds {
		if !errors.Is(err, kind) {
			continue
		}
		msg := err.Error()
		if detail, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
			return detail
		}
		return kind.Error()
	}
	return err.Error()
}

func publish(ctx context.Context, p events.Publisher, topic, key, eventType string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, events.New(eventType, payload)); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", eventType, "error", err)
	}
}
