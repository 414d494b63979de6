package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// User is a local proxy for a user account. It can represent an account
// that does not exist yet; ID is empty until Login, Create or Info succeeds.
type User struct {
	Username     string
	ID           string
	DisplayName  string
	Email        string
	CustomFields map[string]any

	password        string
	passwordChanged bool
	session         *Session
}

// UserOption sets optional profile fields on a new User.
type UserOption func(*User)

// WithDisplayName sets the display name sent by Create.
func WithDisplayName(name string) UserOption {
	return func(u *User) {
		u.DisplayName = name
	}
}

// WithEmail sets the email address sent by Create.
func WithEmail(email string) UserOption {
	return func(u *User) {
		u.Email = email
	}
}

// WithCustomFields sets the custom fields sent by Create.
func WithCustomFields(fields map[string]any) UserOption {
	return func(u *User) {
		u.CustomFields = fields
	}
}

// NewUser returns a User proxy. The password is only ever sent, never read
// back from the server.
func NewUser(s *Session, username, password string, opts ...UserOption) *User {
	u := &User{Username: username, password: password, session: s}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UserID implements UserRef.
func (u *User) UserID() string { return u.ID }

// SetPassword changes the local password; the next Update sends it.
func (u *User) SetPassword(password string) {
	u.password = password
	u.passwordChanged = true
}

// Login authenticates the user. With persist set, the returned token is
// stored in the session's Credentials and attached to every later request
// of every session sharing them.
func (u *User) Login(ctx context.Context, persist bool) (*LoginData, error) {
	const errContext = "Could not authenticate with the REST API"

	resp, err := u.session.post(ctx, "login", map[string]string{"user": u.Username, "password": u.password})
	if err != nil {
		return nil, transportError(KindAuth, errContext, err)
	}

	var out struct {
		Status string    `json:"status"`
		Data   LoginData `json:"data"`
	}
	if resp.StatusCode != http.StatusOK || json.Unmarshal(resp.Body, &out) != nil || out.Status != "success" {
		return nil, buildError(KindAuth, resp.StatusCode, resp.Body, errContext)
	}

	if persist {
		u.session.creds.Set(out.Data.AuthToken, out.Data.UserID)
	}
	u.ID = out.Data.UserID
	return &out.Data, nil
}

// Logout ends the current session. When other is given, that token is
// logged out first. Logout never fails loudly: it reports false if any
// logout was rejected.
func (u *User) Logout(ctx context.Context, other *LoginData) bool {
	ok := true
	if other != nil {
		resp, err := u.session.do(ctx, http.MethodPost, "logout", nil, struct{}{}, map[string]string{
			HeaderAuthToken: other.AuthToken,
			HeaderUserID:    other.UserID,
		})
		ok = err == nil && logoutOK(resp)
	}

	resp, err := u.session.post(ctx, "logout", struct{}{})
	if err != nil || !logoutOK(resp) {
		return false
	}
	u.session.creds.Clear()
	return ok
}

func logoutOK(resp *response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var env envelope
	if json.Unmarshal(resp.Body, &env) != nil {
		return false
	}
	return env.Status == "success" || (env.Success != nil && *env.Success)
}

// Info fetches the user by username and refreshes ID, DisplayName and
// Email from the server.
func (u *User) Info(ctx context.Context) (*UserRecord, error) {
	const errContext = "Could not get user's information"

	resp, err := u.session.call(ctx, KindNotFound, errContext, http.MethodGet, "users.info", url.Values{"username": []string{u.Username}}, nil)
	if err != nil {
		return nil, err
	}
	var out userResponse
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindNotFound, errContext, err)
	}
	u.ID = out.User.ID
	u.DisplayName = out.User.Name
	u.Email = out.User.PrimaryEmail()
	return &out.User, nil
}

func (u *User) ensureID(ctx context.Context) error {
	if u.ID != "" {
		return nil
	}
	_, err := u.Info(ctx)
	return err
}

// Create creates the account on the server.
func (u *User) Create(ctx context.Context) (*UserRecord, error) {
	const errContext = "Could not create new user"

	body := map[string]any{
		"name":     u.DisplayName,
		"email":    u.Email,
		"username": u.Username,
		"password": u.password,
	}
	if u.CustomFields != nil {
		body["customFields"] = u.CustomFields
	}

	resp, err := u.session.call(ctx, KindCreate, errContext, http.MethodPost, "users.create", nil, body)
	if err != nil {
		return nil, err
	}
	var out userResponse
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindCreate, errContext, err)
	}
	u.ID = out.User.ID
	return &out.User, nil
}

// Update changes the profile. The password is only sent when it was changed
// through SetPassword.
func (u *User) Update(ctx context.Context, displayName, username, email string) (*UserRecord, error) {
	const errContext = "Could not update user"

	if err := u.ensureID(ctx); err != nil {
		return nil, err
	}

	data := map[string]any{
		"name":     displayName,
		"username": username,
		"email":    email,
	}
	if u.passwordChanged {
		data["password"] = u.password
	}

	resp, err := u.session.call(ctx, KindUpdate, errContext, http.MethodPost, "users.update", nil,
		map[string]any{"userId": u.ID, "data": data})
	if err != nil {
		return nil, err
	}
	var out userResponse
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindUpdate, errContext, err)
	}

	u.DisplayName = displayName
	u.Username = username
	u.Email = email
	u.passwordChanged = false
	return &out.User, nil
}

// Delete deletes the account, keyed by username.
func (u *User) Delete(ctx context.Context) error {
	_, err := u.session.call(ctx, KindDelete, "Could not delete user", http.MethodPost, "users.delete", nil,
		map[string]any{"username": u.Username})
	return err
}

// GetPresence returns the user's presence ("online", "away", ...).
func (u *User) GetPresence(ctx context.Context) (string, error) {
	const errContext = "Could not get user's presence"

	resp, err := u.session.call(ctx, KindFetch, errContext, http.MethodGet, "users.getPresence", url.Values{"username": []string{u.Username}}, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Presence string `json:"presence"`
	}
	if err := resp.decode(&out); err != nil {
		return "", transportError(KindFetch, errContext, err)
	}
	return out.Presence, nil
}

// SetPresence sets the caller's status and status message and returns the
// raw response body.
func (u *User) SetPresence(ctx context.Context, status, message string) (json.RawMessage, error) {
	body := map[string]any{"status": status, "message": message}
	if u.ID != "" {
		body["userId"] = u.ID
	}
	resp, err := u.session.call(ctx, KindUpdate, "Could not set user's status", http.MethodPost, "users.setStatus", nil, body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// InviteToGroup adds this user to the named private group.
func (u *User) InviteToGroup(ctx context.Context, groupName string) (json.RawMessage, error) {
	return u.groupAction(ctx, "groups.invite", groupName, "Could not invite user to the private group")
}

// KickFromGroup removes this user from the named private group.
func (u *User) KickFromGroup(ctx context.Context, groupName string) (json.RawMessage, error) {
	return u.groupAction(ctx, "groups.kick", groupName, "Could not kick user from group")
}

func (u *User) groupAction(ctx context.Context, endpoint, groupName, errContext string) (json.RawMessage, error) {
	group, err := lookupGroup(ctx, u.session, groupName, nil)
	if err != nil {
		return nil, err
	}
	if err := u.ensureID(ctx); err != nil {
		return nil, err
	}
	resp, err := u.session.call(ctx, KindMembership, errContext, http.MethodPost, endpoint, nil,
		map[string]any{"roomId": group.ID, "userId": u.ID})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// BecomeGroupOwner gives this user the owner role in the group with the
// given id.
func (u *User) BecomeGroupOwner(ctx context.Context, groupID string) error {
	if err := u.ensureID(ctx); err != nil {
		return err
	}
	_, err := u.session.call(ctx, KindMembership, "Could not become owner of private group", http.MethodPost, "groups.addOwner", nil,
		map[string]any{"roomId": groupID, "userId": u.ID})
	return err
}

// Subscriptions returns the caller's room subscriptions.
func (u *User) Subscriptions(ctx context.Context) ([]Subscription, error) {
	const errContext = "Could not get subscriptions"

	resp, err := u.session.call(ctx, KindFetch, errContext, http.MethodGet, "subscriptions.get", nil, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Update []Subscription `json:"update"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindFetch, errContext, err)
	}
	return out.Update, nil
}

// UnreadCount returns the total number of unread messages across the
// caller's subscriptions.
func (u *User) UnreadCount(ctx context.Context) (int, error) {
	subs, err := u.Subscriptions(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, sub := range subs {
		total += sub.Unread
	}
	return total, nil
}
