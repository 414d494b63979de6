package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Listing sources accepted by rocketchat_query.
const (
	SourceUsers       = "users"
	SourceGroups      = "groups"
	SourceAllGroups   = "all_groups"
	SourceChannels    = "channels"
	SourcePermissions = "permissions"
)

// QueryInput is the input for rocketchat_query.
type QueryInput struct {
	Source      string `json:"source" jsonschema:"Listing to query: users, groups, all_groups, channels, permissions"`
	Expression  string `json:"expression" jsonschema:"jq expression applied to the listing (an array of records, or the raw permissions response)"`
	Deduplicate bool   `json:"deduplicate,omitempty" jsonschema:"Remove duplicate values (default: false)"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"Max values to return (default: 50)"`
}

// QueryOutput is the output for rocketchat_query.
type QueryOutput struct {
	Values    []any    `json:"values,omitzero"`
	Errors    []string `json:"errors,omitempty"`
	RawCount  int      `json:"raw_count"`
	Truncated bool     `json:"truncated,omitempty"`
	Hint      string   `json:"hint,omitempty"`
}

// ToolQuery runs a jq expression over a fresh listing. Users are exposed
// with their server field names (_id, username, status, ...); rooms as
// {id, name, type, topic}.
func ToolQuery(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryInput) (*sdkmcp.CallToolResult, QueryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryInput) (*sdkmcp.CallToolResult, QueryOutput, error) {
		if input.Expression == "" {
			return nil, QueryOutput{}, ErrInvalidInput("expression is required")
		}
		if err := d.Query.ValidateExpression(input.Expression); err != nil {
			return nil, QueryOutput{}, ErrInvalidInput(err.Error())
		}

		listing, err := fetchListing(ctx, d, input.Source)
		if err != nil {
			return nil, QueryOutput{}, err
		}

		result, err := d.Query.Run(listing, input.Expression, input.Deduplicate, d.Config.Server.QueryLimit(input.MaxResults))
		if err != nil {
			return nil, QueryOutput{}, ErrInvalidInput(err.Error())
		}

		output := QueryOutput{
			Values:    result.Values,
			Errors:    result.Errors,
			RawCount:  result.RawCount,
			Truncated: result.Truncated,
		}
		switch {
		case result.Truncated:
			output.Hint = "Results were truncated. Narrow the expression or raise max_results."
		case len(result.Values) == 0 && len(result.Errors) == 0:
			output.Hint = "No values matched. Try '.[0]' to see the record shape."
		}
		return nil, output, nil
	}
}

func fetchListing(ctx context.Context, d *Deps, source string) (any, error) {
	switch source {
	case SourceUsers:
		users, err := d.Session.ListUsers(ctx)
		if err != nil {
			return nil, WrapRocketChatError(err)
		}
		return users, nil

	case SourceGroups, SourceAllGroups:
		var groups []*client.Group
		var err error
		if source == SourceAllGroups {
			groups, err = client.ListAllGroups(ctx, d.Session)
		} else {
			groups, err = d.Session.ListGroups(ctx)
		}
		if err != nil {
			return nil, WrapRocketChatError(err)
		}
		rooms := make([]RoomSummary, len(groups))
		for i, g := range groups {
			d.Groups.Put(g)
			rooms[i] = RoomSummary{ID: g.ID, Name: g.Name, Type: client.RoomTypePrivate}
		}
		return rooms, nil

	case SourceChannels:
		channels, err := d.Session.ListChannels(ctx)
		if err != nil {
			return nil, WrapRocketChatError(err)
		}
		rooms := make([]RoomSummary, len(channels))
		for i, c := range channels {
			rooms[i] = RoomSummary{ID: c.ID, Name: c.Name, Type: client.RoomTypeChannel, Topic: c.Topic}
		}
		return rooms, nil

	case SourcePermissions:
		raw, err := d.Session.ListPermissions(ctx)
		if err != nil {
			return nil, WrapRocketChatError(err)
		}
		return raw, nil

	default:
		return nil, ErrInvalidInput(fmt.Sprintf("unknown source %q", source))
	}
}
