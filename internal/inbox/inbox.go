package inbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/consultlaw/consultlaw-go/internal/models"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
)

// Transport is the slice of the HTTP client the inbox needs. Everything
// here is authenticated.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Inbox reads notifications and exchanges messages over plain REST.
type Inbox struct {
	transport Transport
}

// New creates an inbox client
func New(transport Transport) *Inbox {
	return &Inbox{transport: transport}
}

// Notifications returns the user's notification feed, newest first
func (i *Inbox) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := i.transport.Get(ctx, "/notifications/", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

type sendRequest struct {
	Recipient int    `json:"recipient"`
	Content   string `json:"content"`
}

// Send delivers a message to another user. Empty content is rejected
// locally.
func (i *Inbox) Send(ctx context.Context, recipientID int, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.InvalidInputError("content", "must not be empty")
	}
	if recipientID <= 0 {
		return nil, apperrors.InvalidInputError("recipient", "must be a valid user id")
	}

	var sent models.Message
	if err := i.transport.Post(ctx, "/messages/send/", sendRequest{Recipient: recipientID, Content: content}, &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// Conversation returns the message history with another user
func (i *Inbox) Conversation(ctx context.Context, userID int) ([]models.Message, error) {
	var messages []models.Message
	path := fmt.Sprintf("/messages/conversation/?user=%d", userID)
	if err := i.transport.Get(ctx, path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
