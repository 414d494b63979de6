package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/rocketchat-mcp/internal/cache"
	"github.com/usestring/rocketchat-mcp/internal/config"
	"github.com/usestring/rocketchat-mcp/internal/query"
	"github.com/usestring/rocketchat-mcp/internal/schema"
	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// fakeCall is one request seen by fakeServer.
type fakeCall struct {
	Endpoint string
	Query    string
	Body     map[string]any
}

// fakeServer answers REST endpoints with canned JSON bodies.
type fakeServer struct {
	mu      sync.Mutex
	calls   []fakeCall
	replies map[string]func(fakeCall) (int, string)
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{replies: make(map[string]func(fakeCall) (int, string))}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := fakeCall{
			Endpoint: strings.TrimPrefix(r.URL.Path, "/api/v1/"),
			Query:    r.URL.RawQuery,
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &call.Body)
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		reply, ok := f.replies[call.Endpoint]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		status, body := reply(call)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) reply(endpoint string, status int, body string) {
	f.on(endpoint, func(fakeCall) (int, string) { return status, body })
}

func (f *fakeServer) on(endpoint string, fn func(fakeCall) (int, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[endpoint] = fn
}

func (f *fakeServer) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Endpoint == endpoint {
			n++
		}
	}
	return n
}

func (f *fakeServer) last(endpoint string) fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Endpoint == endpoint {
			return f.calls[i]
		}
	}
	return fakeCall{}
}

func newTestDeps(t *testing.T) (*Deps, *fakeServer) {
	t.Helper()
	f, srv := newFakeServer(t)

	creds := client.NewCredentials()
	creds.Set("token", "bot-id")
	session := client.New(srv.URL+"/api/v1", client.WithCredentials(creds))

	groups, err := cache.NewGroupCache(session, 16)
	require.NoError(t, err)
	validator, err := schema.NewMessageValidator()
	require.NoError(t, err)

	return &Deps{
		Session: session,
		Groups:  groups,
		Config: &config.Config{Server: config.ServerConfig{
			FetchWorkers:       4,
			GroupCacheMaxItems: 16,
			DefaultQueryLimit:  50,
			MaxQueryLimit:      1000,
		}},
		Query:    query.NewEngine(),
		Messages: validator,
	}, f
}

const usersListBody = `{"success":true,"users":[
	{"_id":"u1","username":"alice","status":"online","active":true,"roles":["admin"],"emails":[{"address":"alice@example.com","verified":true}]},
	{"_id":"u2","username":"bob","status":"away","active":true},
	{"_id":"u3","username":"carol","status":"online","active":false}
]}`

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "expected CodedError, got %v", err)
	return coded.Code
}

func TestToolMe(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("me", http.StatusOK, `{"success":true,"_id":"bot-id","username":"bot","status":"online","active":true}`)

	_, out, err := ToolMe(d)(context.Background(), nil, MeInput{})
	require.NoError(t, err)
	assert.Equal(t, "bot", out.User.Username)
	assert.Equal(t, "bot-id", out.User.ID)
}

func TestToolMe_AuthError(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("me", http.StatusUnauthorized, `{"status":"error","message":"You must be logged in to do this."}`)

	_, _, err := ToolMe(d)(context.Background(), nil, MeInput{})
	require.Error(t, err)
	assert.Equal(t, ErrCodeAuth, codeOf(t, err))
}

func TestToolUsersList(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("users.list", http.StatusOK, usersListBody)

	_, out, err := ToolUsersList(d)(context.Background(), nil, UsersListInput{})
	require.NoError(t, err)
	require.Len(t, out.Users, 3)
	assert.Equal(t, "alice@example.com", out.Users[0].Email)
	assert.Equal(t, "count=0", f.last("users.list").Query)

	_, out, err = ToolUsersList(d)(context.Background(), nil, UsersListInput{Status: "online", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "alice", out.Users[0].Username)

	_, out, err = ToolUsersList(d)(context.Background(), nil, UsersListInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Users, 2)
	assert.Equal(t, 3, out.Total)
	assert.True(t, out.Truncated)
}

func TestToolUsersList_SearchAndRole(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("users.list", http.StatusOK, usersListBody)

	_, out, err := ToolUsersList(d)(context.Background(), nil, UsersListInput{Query: "car"})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "carol", out.Users[0].Username)

	_, out, err = ToolUsersList(d)(context.Background(), nil, UsersListInput{Query: "example"})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "alice", out.Users[0].Username)

	_, out, err = ToolUsersList(d)(context.Background(), nil, UsersListInput{Role: "Admin"})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "u1", out.Users[0].ID)

	_, out, err = ToolUsersList(d)(context.Background(), nil, UsersListInput{Query: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, out.Users)
	assert.Zero(t, out.Total)
}

func TestToolUserInfo(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("users.info", http.StatusOK, `{"success":true,"user":{"_id":"u2","username":"bob","name":"Bob","active":true}}`)

	_, out, err := ToolUserInfo(d)(context.Background(), nil, UserInfoInput{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "u2", out.User.ID)
	assert.Equal(t, "Bob", out.User.Name)
	assert.Equal(t, "username=bob", f.last("users.info").Query)

	_, _, err = ToolUserInfo(d)(context.Background(), nil, UserInfoInput{})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestToolUserInfo_NotFound(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("users.info", http.StatusBadRequest, `{"success":false,"error":"User not found."}`)

	_, _, err := ToolUserInfo(d)(context.Background(), nil, UserInfoInput{Username: "ghost"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, codeOf(t, err))
	assert.Contains(t, err.Error(), "User not found.")
}

func TestToolUsersPresence(t *testing.T) {
	d, f := newTestDeps(t)
	f.on("users.getPresence", func(c fakeCall) (int, string) {
		switch c.Query {
		case "username=alice":
			return http.StatusOK, `{"success":true,"presence":"online"}`
		case "username=bob":
			return http.StatusOK, `{"success":true,"presence":"away"}`
		default:
			return http.StatusBadRequest, `{"success":false,"error":"User not found"}`
		}
	})

	_, out, err := ToolUsersPresence(d)(context.Background(), nil, UsersPresenceInput{Usernames: []string{"alice", "bob", "ghost"}})
	require.NoError(t, err)
	require.Len(t, out.Presence, 3)
	assert.Equal(t, PresenceEntry{Username: "alice", Presence: "online"}, out.Presence[0])
	assert.Equal(t, PresenceEntry{Username: "bob", Presence: "away"}, out.Presence[1])
	assert.Equal(t, "ghost", out.Presence[2].Username)
	assert.Contains(t, out.Presence[2].Error, "User not found")
	assert.Equal(t, 3, f.count("users.getPresence"))

	_, _, err = ToolUsersPresence(d)(context.Background(), nil, UsersPresenceInput{})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestToolGroupsList_PopulatesCache(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("groups.list", http.StatusOK, `{"success":true,"groups":[{"_id":"g1","name":"ops"},{"_id":"g2","name":"dev"}]}`)
	f.reply("groups.listAll", http.StatusOK, `{"success":true,"groups":[{"_id":"g9","name":"secret"}]}`)

	_, out, err := ToolGroupsList(d)(context.Background(), nil, GroupsListInput{})
	require.NoError(t, err)
	require.Len(t, out.Groups, 2)
	assert.Equal(t, RoomSummary{ID: "g1", Name: "ops", Type: client.RoomTypePrivate}, out.Groups[0])
	assert.Equal(t, "g1", d.Groups.Get("ops").ID)

	_, out, err = ToolGroupsList(d)(context.Background(), nil, GroupsListInput{All: true})
	require.NoError(t, err)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, "secret", out.Groups[0].Name)
}

func TestToolGroupInfo(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("groups.info", http.StatusOK, `{"success":true,"group":{"_id":"g1","name":"ops","t":"p","topic":"on call","usernames":["alice","bob"],"msgs":12}}`)

	_, out, err := ToolGroupInfo(d)(context.Background(), nil, GroupInfoInput{Name: "ops"})
	require.NoError(t, err)
	assert.Equal(t, "g1", out.Group.ID)
	assert.Equal(t, "on call", out.Group.Topic)
	assert.Equal(t, []string{"alice", "bob"}, out.Group.Usernames)
	assert.Equal(t, 12, out.Group.Messages)
	assert.Equal(t, "roomName=ops", f.last("groups.info").Query)
	assert.Equal(t, "g1", d.Groups.Get("ops").ID)
}

func TestToolGroupCreate(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("groups.create", http.StatusOK, `{"success":true,"group":{"_id":"g5","name":"new","t":"p"}}`)

	_, out, err := ToolGroupCreate(d)(context.Background(), nil, GroupCreateInput{Name: "new", Members: []string{"alice", "bob"}})
	require.NoError(t, err)
	assert.Equal(t, "g5", out.Group.ID)

	body := f.last("groups.create").Body
	assert.Equal(t, "new", body["name"])
	assert.Equal(t, []any{"alice", "bob"}, body["members"])
	assert.Equal(t, "g5", d.Groups.Get("new").ID)
}

func TestToolGroupMembers(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("groups.info", http.StatusOK, `{"success":true,"group":{"_id":"g1","name":"ops"}}`)
	f.reply("users.info", http.StatusOK, `{"success":true,"user":{"_id":"u2","username":"bob"}}`)
	f.reply("groups.invite", http.StatusOK, `{"success":true}`)
	f.reply("groups.kick", http.StatusOK, `{"success":true}`)

	_, out, err := ToolGroupMembers(d)(context.Background(), nil, GroupMembersInput{Group: "ops", Action: ActionInvite, Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, GroupMembersOutput{Group: "ops", GroupID: "g1", Action: ActionInvite, UserID: "u2"}, out)
	assert.Equal(t, map[string]any{"roomId": "g1", "userId": "u2"}, f.last("groups.invite").Body)

	_, _, err = ToolGroupMembers(d)(context.Background(), nil, GroupMembersInput{Group: "ops", Action: ActionKick, UserID: "u7"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"roomId": "g1", "userId": "u7"}, f.last("groups.kick").Body)

	assert.Equal(t, 1, f.count("groups.info"), "group id is reused from the cache")
	assert.Equal(t, 1, f.count("users.info"))
}

func TestToolGroupMembers_RetriesAfterGroupRecreated(t *testing.T) {
	d, f := newTestDeps(t)
	d.Groups.Put(client.GroupFromRecord(d.Session, client.RoomRecord{ID: "g-old", Name: "ops"}))
	f.reply("groups.info", http.StatusOK, `{"success":true,"group":{"_id":"g-new","name":"ops"}}`)
	f.on("groups.invite", func(c fakeCall) (int, string) {
		if c.Body["roomId"] != "g-new" {
			return http.StatusBadRequest, `{"success":false,"error":"error-room-not-found"}`
		}
		return http.StatusOK, `{"success":true}`
	})

	_, out, err := ToolGroupMembers(d)(context.Background(), nil, GroupMembersInput{Group: "ops", Action: ActionInvite, UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, "g-new", out.GroupID)
	assert.Equal(t, 2, f.count("groups.invite"))
	assert.Equal(t, 1, f.count("groups.info"))
	assert.Equal(t, "g-new", d.Groups.Get("ops").ID)
}

func TestToolGroupMembers_NoRetryWhenIDUnchanged(t *testing.T) {
	d, f := newTestDeps(t)
	d.Groups.Put(client.GroupFromRecord(d.Session, client.RoomRecord{ID: "g1", Name: "ops"}))
	f.reply("groups.info", http.StatusOK, `{"success":true,"group":{"_id":"g1","name":"ops"}}`)
	f.reply("groups.kick", http.StatusBadRequest, `{"success":false,"error":"User is not in this room"}`)

	_, _, err := ToolGroupMembers(d)(context.Background(), nil, GroupMembersInput{Group: "ops", Action: ActionKick, UserID: "u2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User is not in this room")
	assert.Equal(t, 1, f.count("groups.kick"))
}

func TestToolGroupInfo_ForgetsMissingGroup(t *testing.T) {
	d, f := newTestDeps(t)
	d.Groups.Put(client.GroupFromRecord(d.Session, client.RoomRecord{ID: "g1", Name: "ops"}))
	f.reply("groups.info", http.StatusBadRequest, `{"success":false,"error":"Group not found"}`)

	_, _, err := ToolGroupInfo(d)(context.Background(), nil, GroupInfoInput{Name: "ops"})
	assert.Equal(t, ErrCodeNotFound, codeOf(t, err))
	assert.Zero(t, d.Groups.Len())
}

func TestToolGroupMembers_UnknownGroup(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("groups.info", http.StatusBadRequest, `{"success":false,"error":"Group not found"}`)

	_, _, err := ToolGroupMembers(d)(context.Background(), nil, GroupMembersInput{Group: "ghost", Action: ActionInvite, UserID: "u2"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, codeOf(t, err))
	assert.Zero(t, f.count("groups.invite"))
	assert.Zero(t, d.Groups.Len())
}

func TestToolGroupMembers_InvalidInput(t *testing.T) {
	d, _ := newTestDeps(t)
	handler := ToolGroupMembers(d)

	tests := []GroupMembersInput{
		{Action: ActionInvite, Username: "bob"},
		{Group: "ops", Action: ActionInvite},
		{Group: "ops", Action: "promote", Username: "bob"},
	}
	for _, input := range tests {
		_, _, err := handler(context.Background(), nil, input)
		assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err), "%+v", input)
	}
}

func TestToolGroupPostMessage(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("chat.postMessage", http.StatusOK, `{"success":true}`)

	_, out, err := ToolGroupPostMessage(d)(context.Background(), nil, GroupPostMessageInput{Group: "ops", Text: "deployed"})
	require.NoError(t, err)
	assert.Equal(t, PostOutput{Channel: "#ops", Posted: true}, out)

	body := f.last("chat.postMessage").Body
	assert.Equal(t, "#ops", body["channel"])
	assert.Equal(t, "deployed", body["text"])
	assert.Equal(t, []any{}, body["attachments"])
}

func TestToolSendMessage(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("chat.postMessage", http.StatusOK, `{"success":true}`)

	input := SendMessageInput{
		Channel: "@alice",
		Message: map[string]any{
			"text":        "build finished",
			"alias":       "ci",
			"attachments": []any{map[string]any{"title": "logs", "title_link": "https://ci.example.com/1"}},
		},
	}
	_, out, err := ToolSendMessage(d)(context.Background(), nil, input)
	require.NoError(t, err)
	assert.True(t, out.Posted)

	body := f.last("chat.postMessage").Body
	assert.Equal(t, "@alice", body["channel"])
	assert.Equal(t, "ci", body["alias"])
	require.Len(t, body["attachments"], 1)
}

func TestToolSendMessage_Rejected(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("chat.postMessage", http.StatusOK, `{"success":true}`)
	handler := ToolSendMessage(d)

	tests := []SendMessageInput{
		{Channel: "ops", Message: map[string]any{"text": "hi"}},
		{Channel: "#ops"},
		{Channel: "#ops", Message: map[string]any{"text": 5}},
		{Channel: "#ops", Message: map[string]any{"text": "hi", "roomId": "x"}},
	}
	for _, input := range tests {
		_, _, err := handler(context.Background(), nil, input)
		assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err), "%+v", input)
	}
	assert.Equal(t, 0, f.count("chat.postMessage"))
}

func TestToolChannelsList(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("channels.list", http.StatusOK, `{"success":true,"channels":[{"_id":"c1","name":"general","topic":"hello"}]}`)

	_, out, err := ToolChannelsList(d)(context.Background(), nil, ChannelsListInput{})
	require.NoError(t, err)
	assert.Equal(t, []RoomSummary{{ID: "c1", Name: "general", Type: client.RoomTypeChannel, Topic: "hello"}}, out.Channels)
}

func TestToolPermissions(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("permissions.listAll", http.StatusOK, `{"success":true,"update":[{"_id":"view-room","roles":["user"]}],"remove":[]}`)

	res, out, err := ToolPermissions(d)(context.Background(), nil, PermissionsInput{})
	require.NoError(t, err)
	perms, ok := out.Permissions.(map[string]any)
	require.True(t, ok)
	assert.Len(t, perms["update"], 1)

	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"success":true,"update":[{"_id":"view-room","roles":["user"]}],"remove":[]}`, text.Text)
}

func TestToolQuery(t *testing.T) {
	d, f := newTestDeps(t)
	f.reply("users.list", http.StatusOK, usersListBody)
	f.reply("channels.list", http.StatusOK, `{"success":true,"channels":[{"_id":"c1","name":"general"},{"_id":"c2","name":"random"}]}`)

	_, out, err := ToolQuery(d)(context.Background(), nil, QueryInput{
		Source:     SourceUsers,
		Expression: `.[] | select(.status == "online") | .username`,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"alice", "carol"}, out.Values)

	_, out, err = ToolQuery(d)(context.Background(), nil, QueryInput{
		Source:     SourceChannels,
		Expression: `.[].name`,
		MaxResults: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"general"}, out.Values)
	assert.True(t, out.Truncated)
	assert.NotEmpty(t, out.Hint)
}

func TestToolQuery_InvalidInput(t *testing.T) {
	d, f := newTestDeps(t)
	handler := ToolQuery(d)

	_, _, err := handler(context.Background(), nil, QueryInput{Source: SourceUsers})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	_, _, err = handler(context.Background(), nil, QueryInput{Source: SourceUsers, Expression: ".[] |"})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	_, _, err = handler(context.Background(), nil, QueryInput{Source: "messages", Expression: "."})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	assert.Equal(t, 0, f.count("users.list"))
}

func TestWrapRocketChatError_LiveFailures(t *testing.T) {
	_, err := client.NewUser(client.New("http://127.0.0.1:1", client.WithCredentials(client.NewCredentials())), "alice", "").Info(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrCodeRocketChatError, codeOf(t, WrapRocketChatError(err)))

	d, f := newTestDeps(t)
	f.reply("groups.info", http.StatusInternalServerError, `{"error":"db down"}`)
	_, err = client.NewGroup(d.Session, "ops").Info(context.Background())
	require.Error(t, err)
	wrapped := WrapRocketChatError(err)
	assert.Equal(t, ErrCodeRocketChatError, codeOf(t, wrapped))
	assert.Contains(t, wrapped.Error(), "db down")
}

func TestWrapRocketChatError(t *testing.T) {
	assert.NoError(t, WrapRocketChatError(nil))

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"lookup miss", &client.Error{Kind: client.KindNotFound, StatusCode: http.StatusBadRequest, Context: "x", Detail: "y"}, ErrCodeNotFound},
		{"lookup unauthorized", &client.Error{Kind: client.KindNotFound, StatusCode: http.StatusUnauthorized}, ErrCodeAuth},
		{"lookup server error", &client.Error{Kind: client.KindNotFound, StatusCode: http.StatusInternalServerError, Detail: "db down"}, ErrCodeRocketChatError},
		{"lookup unreachable", &client.Error{Kind: client.KindNotFound, Cause: errors.New("connection refused")}, ErrCodeRocketChatError},
		{"login rejected", &client.Error{Kind: client.KindAuth, StatusCode: http.StatusOK, Context: "x", Detail: "y"}, ErrCodeAuth},
		{"login unreachable", &client.Error{Kind: client.KindAuth, Cause: errors.New("connection refused")}, ErrCodeRocketChatError},
		{"401", &client.Error{Kind: client.KindFetch, StatusCode: http.StatusUnauthorized}, ErrCodeAuth},
		{"404", &client.Error{Kind: client.KindFetch, StatusCode: http.StatusNotFound}, ErrCodeNotFound},
		{"other", &client.Error{Kind: client.KindPost, StatusCode: http.StatusBadRequest}, ErrCodeRocketChatError},
		{"deadline", &client.Error{Kind: client.KindFetch, Cause: context.DeadlineExceeded}, ErrCodeTimeout},
		{"plain", errors.New("boom"), ErrCodeRocketChatError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapRocketChatError(tt.err)
			assert.Equal(t, tt.code, codeOf(t, err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
