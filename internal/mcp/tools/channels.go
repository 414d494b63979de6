package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// ChannelsListInput is the input for rocketchat_channels_list.
type ChannelsListInput struct{}

// ChannelsListOutput is the output for rocketchat_channels_list.
type ChannelsListOutput struct {
	Channels []RoomSummary `json:"channels,omitzero"`
}

// PermissionsInput is the input for rocketchat_permissions.
type PermissionsInput struct{}

// PermissionsOutput is the output for rocketchat_permissions.
type PermissionsOutput struct {
	Permissions any `json:"permissions"`
}

// ToolChannelsList lists public channels.
func ToolChannelsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ChannelsListInput) (*sdkmcp.CallToolResult, ChannelsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ChannelsListInput) (*sdkmcp.CallToolResult, ChannelsListOutput, error) {
		channels, err := d.Session.ListChannels(ctx)
		if err != nil {
			return nil, ChannelsListOutput{}, WrapRocketChatError(err)
		}

		output := ChannelsListOutput{Channels: make([]RoomSummary, len(channels))}
		for i, c := range channels {
			output.Channels[i] = RoomSummary{ID: c.ID, Name: c.Name, Type: client.RoomTypeChannel, Topic: c.Topic}
		}
		return nil, output, nil
	}
}

// ToolPermissions returns the server's permission table. The text content
// carries the table itself rather than the output envelope.
func ToolPermissions(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input PermissionsInput) (*sdkmcp.CallToolResult, PermissionsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input PermissionsInput) (*sdkmcp.CallToolResult, PermissionsOutput, error) {
		raw, err := d.Session.ListPermissions(ctx)
		if err != nil {
			return nil, PermissionsOutput{}, WrapRocketChatError(err)
		}
		v, err := ToAny(raw)
		if err != nil {
			return nil, PermissionsOutput{}, WrapRocketChatError(err)
		}
		res, err := MakeJSONToolResult(v)
		if err != nil {
			return nil, PermissionsOutput{}, WrapRocketChatError(err)
		}
		return res, PermissionsOutput{Permissions: v}, nil
	}
}
