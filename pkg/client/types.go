package client

import "encoding/json"

// Presence values accepted by users.setStatus.
const (
	PresenceOnline  = "online"
	PresenceAway    = "away"
	PresenceBusy    = "busy"
	PresenceOffline = "offline"
)

// Room types as reported in the "t" field.
const (
	RoomTypeChannel = "c"
	RoomTypePrivate = "p"
	RoomTypeDirect  = "d"
)

// Email is one address of a user account.
type Email struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// UserRecord is a user account as returned by the server.
type UserRecord struct {
	ID           string         `json:"_id"`
	Username     string         `json:"username"`
	Name         string         `json:"name,omitempty"`
	Status       string         `json:"status,omitempty"`
	Active       bool           `json:"active"`
	Type         string         `json:"type,omitempty"`
	Roles        []string       `json:"roles,omitempty"`
	Emails       []Email        `json:"emails,omitempty"`
	UTCOffset    float64        `json:"utcOffset,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

// PrimaryEmail returns the first email address, or "".
func (u *UserRecord) PrimaryEmail() string {
	if len(u.Emails) == 0 {
		return ""
	}
	return u.Emails[0].Address
}

// RoomRecord is a group or channel as returned by the server.
type RoomRecord struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Type      string   `json:"t,omitempty"`
	Topic     string   `json:"topic,omitempty"`
	Usernames []string `json:"usernames,omitempty"`
	Messages  int      `json:"msgs,omitempty"`
	ReadOnly  bool     `json:"ro,omitempty"`
}

// LoginData is the "data" object of a successful login.
type LoginData struct {
	AuthToken string          `json:"authToken"`
	UserID    string          `json:"userId"`
	Me        json.RawMessage `json:"me,omitempty"`
}

// Subscription is the caller's membership record for one room.
type Subscription struct {
	ID     string `json:"_id"`
	RoomID string `json:"rid"`
	Name   string `json:"name"`
	Type   string `json:"t"`
	Unread int    `json:"unread"`
	Open   bool   `json:"open"`
	Alert  bool   `json:"alert"`
}

// AttachmentField is a short key/value shown inside an attachment.
type AttachmentField struct {
	Short bool   `json:"short,omitempty"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Attachment is a rich block attached to a message.
type Attachment struct {
	Color     string            `json:"color,omitempty"`
	Text      string            `json:"text,omitempty"`
	Title     string            `json:"title,omitempty"`
	TitleLink string            `json:"title_link,omitempty"`
	ImageURL  string            `json:"image_url,omitempty"`
	ThumbURL  string            `json:"thumb_url,omitempty"`
	Timestamp string            `json:"ts,omitempty"`
	Fields    []AttachmentField `json:"fields,omitempty"`
}

// Message is the payload of chat.postMessage without its target channel.
// Attachments is always serialized, as an empty list when unset.
type Message struct {
	Text        string       `json:"text,omitempty"`
	Alias       string       `json:"alias,omitempty"`
	Emoji       string       `json:"emoji,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// postMessageBody is the full chat.postMessage request.
type postMessageBody struct {
	Channel string `json:"channel"`
	Message
}

// roomResponse is the envelope of groups.create and groups.info.
type roomResponse struct {
	Group RoomRecord `json:"group"`
}

// userResponse is the envelope of users.info, users.create and users.update.
type userResponse struct {
	User UserRecord `json:"user"`
}
