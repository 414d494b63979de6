// Package tools contains MCP tool implementations for Rocket.Chat.
package tools

import (
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// MIME type constant.
const MimeJSON = "application/json"

// MakeJSONToolResult creates a CallToolResult whose only content is v as
// JSON text. Structured output is still filled in from the handler's Out.
func MakeJSONToolResult(v any) (*sdkmcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: string(b)},
		},
	}, nil
}

// ToAny decodes raw JSON into plain maps and slices for tool outputs.
// Empty input yields nil.
func ToAny(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return v, nil
}

// UserSummary is the tool view of a user account.
type UserSummary struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name,omitempty"`
	Status   string   `json:"status,omitempty"`
	Active   bool     `json:"active"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func summarizeUser(u *client.UserRecord) UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Status:   u.Status,
		Active:   u.Active,
		Email:    u.PrimaryEmail(),
		Roles:    u.Roles,
	}
}

// RoomSummary is the tool view of a group or channel.
type RoomSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	Topic     string   `json:"topic,omitempty"`
	Usernames []string `json:"usernames,omitempty"`
	Messages  int      `json:"messages,omitempty"`
	ReadOnly  bool     `json:"read_only,omitempty"`
}

func summarizeRoom(r *client.RoomRecord) RoomSummary {
	return RoomSummary{
		ID:        r.ID,
		Name:      r.Name,
		Type:      r.Type,
		Topic:     r.Topic,
		Usernames: r.Usernames,
		Messages:  r.Messages,
		ReadOnly:  r.ReadOnly,
	}
}
