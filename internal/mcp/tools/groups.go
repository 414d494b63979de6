package tools

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Membership actions accepted by rocketchat_group_members.
const (
	ActionInvite      = "invite"
	ActionKick        = "kick"
	ActionAddOwner    = "add_owner"
	ActionRemoveOwner = "remove_owner"
)

var memberActions = []string{ActionInvite, ActionKick, ActionAddOwner, ActionRemoveOwner}

// GroupsListInput is the input for rocketchat_groups_list.
type GroupsListInput struct {
	All bool `json:"all,omitempty" jsonschema:"List every private group on the server instead of only the caller's (requires admin)"`
}

// GroupsListOutput is the output for rocketchat_groups_list.
type GroupsListOutput struct {
	Groups []RoomSummary `json:"groups,omitzero"`
}

// GroupInfoInput is the input for rocketchat_group_info.
type GroupInfoInput struct {
	Name string `json:"name" jsonschema:"Private group name"`
}

// GroupInfoOutput is the output for rocketchat_group_info and rocketchat_group_create.
type GroupInfoOutput struct {
	Group RoomSummary `json:"group"`
}

// GroupCreateInput is the input for rocketchat_group_create.
type GroupCreateInput struct {
	Name    string   `json:"name" jsonschema:"Name of the new private group"`
	Members []string `json:"members,omitempty" jsonschema:"Usernames to add as members"`
}

// GroupMembersInput is the input for rocketchat_group_members.
type GroupMembersInput struct {
	Group    string `json:"group" jsonschema:"Private group name"`
	Action   string `json:"action" jsonschema:"One of: invite, kick, add_owner, remove_owner"`
	Username string `json:"username,omitempty" jsonschema:"Target username (resolved to an id)"`
	UserID   string `json:"user_id,omitempty" jsonschema:"Target user id (skips the username lookup)"`
}

// GroupMembersOutput is the output for rocketchat_group_members.
type GroupMembersOutput struct {
	Group   string `json:"group"`
	GroupID string `json:"group_id"`
	Action  string `json:"action"`
	UserID  string `json:"user_id"`
}

// GroupPostMessageInput is the input for rocketchat_group_post_message.
type GroupPostMessageInput struct {
	Group string `json:"group" jsonschema:"Private group name"`
	Text  string `json:"text" jsonschema:"Message text"`
}

// PostOutput is the output of the message posting tools.
type PostOutput struct {
	Channel string `json:"channel"`
	Posted  bool   `json:"posted"`
}

// ToolGroupsList lists private groups and remembers their ids.
func ToolGroupsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupsListInput) (*sdkmcp.CallToolResult, GroupsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupsListInput) (*sdkmcp.CallToolResult, GroupsListOutput, error) {
		var groups []*client.Group
		var err error
		if input.All {
			groups, err = client.ListAllGroups(ctx, d.Session)
		} else {
			groups, err = d.Session.ListGroups(ctx)
		}
		if err != nil {
			return nil, GroupsListOutput{}, WrapRocketChatError(err)
		}

		output := GroupsListOutput{Groups: make([]RoomSummary, len(groups))}
		for i, g := range groups {
			d.Groups.Put(g)
			output.Groups[i] = RoomSummary{ID: g.ID, Name: g.Name, Type: client.RoomTypePrivate}
		}
		return nil, output, nil
	}
}

// ToolGroupInfo returns a private group's server record.
func ToolGroupInfo(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupInfoInput) (*sdkmcp.CallToolResult, GroupInfoOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupInfoInput) (*sdkmcp.CallToolResult, GroupInfoOutput, error) {
		if input.Name == "" {
			return nil, GroupInfoOutput{}, ErrInvalidInput("name is required")
		}

		g := d.Groups.Get(input.Name)
		rec, err := g.Info(ctx)
		if err != nil {
			if client.IsNotFound(err) {
				d.Groups.Forget(input.Name)
			}
			return nil, GroupInfoOutput{}, WrapRocketChatError(err)
		}
		d.Groups.Put(g)
		return nil, GroupInfoOutput{Group: summarizeRoom(rec)}, nil
	}
}

// ToolGroupCreate creates a private group with the given members.
func ToolGroupCreate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupCreateInput) (*sdkmcp.CallToolResult, GroupInfoOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupCreateInput) (*sdkmcp.CallToolResult, GroupInfoOutput, error) {
		if input.Name == "" {
			return nil, GroupInfoOutput{}, ErrInvalidInput("name is required")
		}

		g := client.NewGroup(d.Session, input.Name, input.Members...)
		rec, err := g.Create(ctx)
		if err != nil {
			return nil, GroupInfoOutput{}, WrapRocketChatError(err)
		}
		d.Groups.Put(g)
		return nil, GroupInfoOutput{Group: summarizeRoom(rec)}, nil
	}
}

// ToolGroupMembers invites, kicks, promotes or demotes a group member.
func ToolGroupMembers(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupMembersInput) (*sdkmcp.CallToolResult, GroupMembersOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupMembersInput) (*sdkmcp.CallToolResult, GroupMembersOutput, error) {
		if input.Group == "" {
			return nil, GroupMembersOutput{}, ErrInvalidInput("group is required")
		}
		if input.Username == "" && input.UserID == "" {
			return nil, GroupMembersOutput{}, ErrInvalidInput("either username or user_id is required")
		}

		if !slices.Contains(memberActions, input.Action) {
			return nil, GroupMembersOutput{}, ErrInvalidInput(fmt.Sprintf("unknown action %q", input.Action))
		}

		cached := d.Groups.Get(input.Group).ID != ""
		g, err := d.Groups.Resolve(ctx, input.Group)
		if err != nil {
			return nil, GroupMembersOutput{}, WrapRocketChatError(err)
		}

		var target client.UserRef = client.UserID(input.UserID)
		if input.UserID == "" {
			u := d.user(input.Username)
			if _, err := u.Info(ctx); err != nil {
				return nil, GroupMembersOutput{}, WrapRocketChatError(err)
			}
			target = u
		}

		err = memberAction(g, input.Action)(ctx, target)
		if err != nil && cached {
			// The cached id may belong to a group renamed or recreated
			// elsewhere; look it up again and retry once if it moved.
			d.Groups.Forget(input.Group)
			fresh, rerr := d.Groups.Resolve(ctx, input.Group)
			if rerr != nil {
				return nil, GroupMembersOutput{}, WrapRocketChatError(rerr)
			}
			if fresh.ID != g.ID {
				slog.Info("group id changed, retrying",
					slog.String("group", input.Group),
					slog.String("old_id", g.ID),
					slog.String("new_id", fresh.ID),
				)
				g = fresh
				err = memberAction(g, input.Action)(ctx, target)
			}
		}
		if err != nil {
			return nil, GroupMembersOutput{}, WrapRocketChatError(err)
		}

		return nil, GroupMembersOutput{
			Group:   g.Name,
			GroupID: g.ID,
			Action:  input.Action,
			UserID:  target.UserID(),
		}, nil
	}
}

// memberAction returns g's method for a membership action, or nil.
func memberAction(g *client.Group, action string) func(context.Context, client.UserRef) error {
	switch action {
	case ActionInvite:
		return g.Invite
	case ActionKick:
		return g.Kick
	case ActionAddOwner:
		return g.AddOwner
	case ActionRemoveOwner:
		return g.RemoveOwner
	}
	return nil
}

// ToolGroupPostMessage posts text to a private group.
func ToolGroupPostMessage(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupPostMessageInput) (*sdkmcp.CallToolResult, PostOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupPostMessageInput) (*sdkmcp.CallToolResult, PostOutput, error) {
		if input.Group == "" || input.Text == "" {
			return nil, PostOutput{}, ErrInvalidInput("group and text are required")
		}

		if err := d.Groups.Get(input.Group).PostMessage(ctx, input.Text); err != nil {
			return nil, PostOutput{}, WrapRocketChatError(err)
		}
		return nil, PostOutput{Channel: "#" + input.Group, Posted: true}, nil
	}
}
