package notify

import (
	"context"

	"remindd/internal/api"
)

// NotificationAdder is the slice of the backend client the in-app sink
// needs.
type NotificationAdder interface {
	AddNotification(ctx context.Context, n api.AppNotification) error
}

// InApp writes notifications to the backend's in-app notification store.
type InApp struct {
	backend NotificationAdder
}

// NewInApp creates the in-app sink on top of the backend client.
func NewInApp(backend NotificationAdder) *InApp {
	return &InApp{backend: backend}
}

func (s *InApp) Name() string { return "in-app" }

func (s *InApp) Send(ctx context.Context, msg Message) error {
	return s.backend.AddNotification(ctx, api.AppNotification{
		Title:   msg.Title,
		Message: msg.Body,
		Type:    msg.Type,
		Link:    msg.Link,
	})
}
