package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_me",
		Description: "Get the account the server is logged in as",
	}, ToolMe(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_users_list",
		Description: "List user accounts. Filter by presence status or active accounts only. Returns {users: [{id, username, name, status, active, email, roles}], total, truncated}.",
	}, ToolUsersList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_user_info",
		Description: "Get one user's account details by username",
	}, ToolUserInfo(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_users_presence",
		Description: "Get the presence (online, away, busy, offline) of several users at once. Lookups that fail are reported per user.",
	}, ToolUsersPresence(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_groups_list",
		Description: "List private groups the account belongs to. Set all=true to list every private group on the server (admin only).",
	}, ToolGroupsList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_group_info",
		Description: "Get a private group's details (id, topic, members, message count) by name",
	}, ToolGroupInfo(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_group_create",
		Description: "Create a private group with an initial list of member usernames",
	}, ToolGroupCreate(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_group_members",
		Description: "Change a private group's membership. action is one of invite, kick, add_owner, remove_owner. Identify the user by username or user_id.",
	}, ToolGroupMembers(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_group_post_message",
		Description: "Post a plain text message to a private group",
	}, ToolGroupPostMessage(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_send_message",
		Description: "Post a message object (text, alias, emoji, avatar, attachments) to #room or @username. The object is validated before sending; unknown fields are rejected.",
	}, ToolSendMessage(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_channels_list",
		Description: "List public channels",
	}, ToolChannelsList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_permissions",
		Description: "Get the server's permission table (permission id to roles)",
	}, ToolPermissions(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "rocketchat_query",
		Description: "Run a jq expression over a listing. source is one of users, groups, all_groups, channels, permissions. Example: source=users, expression='.[] | select(.status == \"online\") | .username'.",
	}, ToolQuery(d))
}
