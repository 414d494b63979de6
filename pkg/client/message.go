package client

import (
	"context"
	"net/http"
)

// Send posts a message object to a room or user ("#channel" or "@username")
// as the logged-in user.
func (s *Session) Send(ctx context.Context, channel string, msg Message) error {
	return s.postMessage(ctx, channel, msg)
}

// postMessage sends msg to channel ("#name" or "@username").
func (s *Session) postMessage(ctx context.Context, channel string, msg Message) error {
	if msg.Attachments == nil {
		msg.Attachments = []Attachment{}
	}
	_, err := s.call(ctx, KindPost, "Could not post message", http.MethodPost, "chat.postMessage", nil,
		postMessageBody{Channel: channel, Message: msg})
	return err
}

// PostMessage posts text to a room or user ("#channel" or "@username") as
// the logged-in user.
func (s *Session) PostMessage(ctx context.Context, channel, text string) error {
	return s.postMessage(ctx, channel, Message{Text: text})
}
