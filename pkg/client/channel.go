package client

import "context"

// Channel is a local proxy for a public channel.
type Channel struct {
	ID    string
	Name  string
	Topic string

	session *Session
}

// ChannelFromRecord hydrates a Channel from a server room object.
func ChannelFromRecord(s *Session, rec RoomRecord) *Channel {
	return &Channel{
		ID:      rec.ID,
		Name:    rec.Name,
		Topic:   rec.Topic,
		session: s,
	}
}

// PostMessage posts text to the channel as the logged-in user.
func (c *Channel) PostMessage(ctx context.Context, text string) error {
	return c.Send(ctx, Message{Text: text})
}

// Send posts a message object to the channel as the logged-in user.
func (c *Channel) Send(ctx context.Context, msg Message) error {
	return c.session.postMessage(ctx, "#"+c.Name, msg)
}
