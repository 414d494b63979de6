package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/rocketchat-mcp/internal/directory"
)

// MeInput is the input for rocketchat_me.
type MeInput struct{}

// MeOutput is the output for rocketchat_me.
type MeOutput struct {
	User UserSummary `json:"user"`
}

// UsersListInput is the input for rocketchat_users_list.
type UsersListInput struct {
	Query      string `json:"query,omitempty" jsonschema:"Free text matched against username, display name and email"`
	Role       string `json:"role,omitempty" jsonschema:"Only users holding this role, e.g. admin, bot"`
	Status     string `json:"status,omitempty" jsonschema:"Only users with this presence: online, away, busy, offline"`
	ActiveOnly bool   `json:"active_only,omitempty" jsonschema:"Skip deactivated accounts"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max users to return (default: 50)"`
}

// UsersListOutput is the output for rocketchat_users_list.
type UsersListOutput struct {
	Users     []UserSummary `json:"users,omitzero"`
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated,omitempty"`
}

// UserInfoInput is the input for rocketchat_user_info.
type UserInfoInput struct {
	Username string `json:"username" jsonschema:"Username to look up"`
}

// UserInfoOutput is the output for rocketchat_user_info.
type UserInfoOutput struct {
	User UserSummary `json:"user"`
}

// UsersPresenceInput is the input for rocketchat_users_presence.
type UsersPresenceInput struct {
	Usernames []string `json:"usernames" jsonschema:"Usernames to check"`
}

// PresenceEntry is the presence of one user, or why it could not be read.
type PresenceEntry struct {
	Username string `json:"username"`
	Presence string `json:"presence,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UsersPresenceOutput is the output for rocketchat_users_presence.
type UsersPresenceOutput struct {
	Presence []PresenceEntry `json:"presence,omitzero"`
}

// ToolMe returns the authenticated user.
func ToolMe(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input MeInput) (*sdkmcp.CallToolResult, MeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input MeInput) (*sdkmcp.CallToolResult, MeOutput, error) {
		me, err := d.Session.Me(ctx)
		if err != nil {
			return nil, MeOutput{}, WrapRocketChatError(err)
		}
		return nil, MeOutput{User: summarizeUser(me)}, nil
	}
}

// ToolUsersList lists users, optionally searched by text and filtered by
// presence, role and activity.
func ToolUsersList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input UsersListInput) (*sdkmcp.CallToolResult, UsersListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input UsersListInput) (*sdkmcp.CallToolResult, UsersListOutput, error) {
		users, err := d.Session.ListUsers(ctx)
		if err != nil {
			return nil, UsersListOutput{}, WrapRocketChatError(err)
		}

		matches := directory.New(users).Search(directory.Filter{
			Query:      input.Query,
			Status:     input.Status,
			Role:       input.Role,
			ActiveOnly: input.ActiveOnly,
		})

		limit := d.Config.Server.QueryLimit(input.Limit)
		output := UsersListOutput{
			Users: make([]UserSummary, 0, min(limit, len(matches))),
			Total: len(matches),
		}
		for _, m := range matches {
			if len(output.Users) >= limit {
				output.Truncated = true
				break
			}
			output.Users = append(output.Users, summarizeUser(m.User))
		}

		return nil, output, nil
	}
}

// ToolUserInfo looks up one user by username.
func ToolUserInfo(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input UserInfoInput) (*sdkmcp.CallToolResult, UserInfoOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input UserInfoInput) (*sdkmcp.CallToolResult, UserInfoOutput, error) {
		if input.Username == "" {
			return nil, UserInfoOutput{}, ErrInvalidInput("username is required")
		}

		rec, err := d.user(input.Username).Info(ctx)
		if err != nil {
			return nil, UserInfoOutput{}, WrapRocketChatError(err)
		}
		return nil, UserInfoOutput{User: summarizeUser(rec)}, nil
	}
}

// ToolUsersPresence reads the presence of several users concurrently.
// A failed lookup is reported on its entry and does not fail the call.
func ToolUsersPresence(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input UsersPresenceInput) (*sdkmcp.CallToolResult, UsersPresenceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input UsersPresenceInput) (*sdkmcp.CallToolResult, UsersPresenceOutput, error) {
		if len(input.Usernames) == 0 {
			return nil, UsersPresenceOutput{}, ErrInvalidInput("usernames is required")
		}

		output := UsersPresenceOutput{Presence: make([]PresenceEntry, len(input.Usernames))}

		var g errgroup.Group
		g.SetLimit(max(d.Config.Server.FetchWorkers, 1))
		for i, username := range input.Usernames {
			g.Go(func() error {
				entry := PresenceEntry{Username: username}
				presence, err := d.user(username).GetPresence(ctx)
				if err != nil {
					entry.Error = err.Error()
				} else {
					entry.Presence = presence
				}
				output.Presence[i] = entry
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, UsersPresenceOutput{}, WrapRocketChatError(err)
		}
		return nil, output, nil
	}
}
