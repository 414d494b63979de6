package tools

import (
	"context"
	"encoding/json"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SendMessageInput is the input for rocketchat_send_message.
type SendMessageInput struct {
	Channel string         `json:"channel" jsonschema:"Target room or user: #channel, #group or @username"`
	Message map[string]any `json:"message" jsonschema:"Message object: text, alias, emoji, avatar, attachments"`
}

// ToolSendMessage validates a raw message object and posts it.
func ToolSendMessage(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SendMessageInput) (*sdkmcp.CallToolResult, PostOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SendMessageInput) (*sdkmcp.CallToolResult, PostOutput, error) {
		if !strings.HasPrefix(input.Channel, "#") && !strings.HasPrefix(input.Channel, "@") {
			return nil, PostOutput{}, ErrInvalidInput("channel must start with # or @")
		}
		if len(input.Message) == 0 {
			return nil, PostOutput{}, ErrInvalidInput("message is required")
		}

		data, err := json.Marshal(input.Message)
		if err != nil {
			return nil, PostOutput{}, ErrInvalidInput(err.Error())
		}
		msg, res := d.Messages.DecodeMessage(data)
		if res != nil {
			return nil, PostOutput{}, ErrInvalidInput("invalid message: " + strings.Join(res.Errors, "; "))
		}

		if err := d.Session.Send(ctx, input.Channel, *msg); err != nil {
			return nil, PostOutput{}, WrapRocketChatError(err)
		}
		return nil, PostOutput{Channel: input.Channel, Posted: true}, nil
	}
}
