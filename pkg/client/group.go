package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// UserRef identifies a user in membership calls. Pass either a raw id as
// UserID or a *User; a *User without an ID is looked up first.
type UserRef interface {
	UserID() string
}

// UserID is a raw server-side user id.
type UserID string

// UserID implements UserRef.
func (id UserID) UserID() string { return string(id) }

// Group is a local proxy for a private group. ID is empty until Create or
// Info succeeds; methods that need it call Info first.
type Group struct {
	ID      string
	Name    string
	Members []*User // used by Create only, not kept in sync

	session *Session
}

// NewGroup returns a Group proxy. Usernames become placeholder members
// without passwords.
func NewGroup(s *Session, name string, usernames ...string) *Group {
	g := &Group{Name: name, session: s}
	for _, username := range usernames {
		g.Members = append(g.Members, NewUser(s, username, ""))
	}
	return g
}

// GroupFromRecord hydrates a Group from a server room object.
func GroupFromRecord(s *Session, rec RoomRecord) *Group {
	return &Group{ID: rec.ID, Name: rec.Name, session: s}
}

// AddMember appends an existing User to the members sent by Create.
func (g *Group) AddMember(u *User) {
	g.Members = append(g.Members, u)
}

// Create creates the private group with its members.
func (g *Group) Create(ctx context.Context) (*RoomRecord, error) {
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m != nil && m.Username != "" {
			members = append(members, m.Username)
		}
	}

	resp, err := g.session.call(ctx, KindCreate, "Could not create a private group", http.MethodPost, "groups.create", nil,
		map[string]any{"name": g.Name, "members": members})
	if err != nil {
		return nil, err
	}
	var out roomResponse
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindCreate, "Could not create a private group", err)
	}
	g.ID = out.Group.ID
	return &out.Group, nil
}

// Info fetches the group by name and caches its id. Only members can see
// a private group.
func (g *Group) Info(ctx context.Context) (*RoomRecord, error) {
	return lookupGroup(ctx, g.session, g.Name, func(rec *RoomRecord) { g.ID = rec.ID })
}

func lookupGroup(ctx context.Context, s *Session, name string, found func(*RoomRecord)) (*RoomRecord, error) {
	const errContext = "Could not get info about the group"

	resp, err := s.call(ctx, KindNotFound, errContext, http.MethodGet, "groups.info", url.Values{"roomName": []string{name}}, nil)
	if err != nil {
		return nil, err
	}
	var out roomResponse
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindNotFound, errContext, err)
	}
	if found != nil {
		found(&out.Group)
	}
	return &out.Group, nil
}

func (g *Group) ensureID(ctx context.Context) error {
	if g.ID != "" {
		return nil
	}
	_, err := g.Info(ctx)
	return err
}

// PostMessage posts text to the group as the logged-in user.
func (g *Group) PostMessage(ctx context.Context, text string) error {
	return g.Send(ctx, Message{Text: text})
}

// Send posts a message object to the group as the logged-in user.
func (g *Group) Send(ctx context.Context, msg Message) error {
	return g.session.postMessage(ctx, "#"+g.Name, msg)
}

// Close hides the group from the caller's list of groups.
func (g *Group) Close(ctx context.Context) error {
	return g.roomAction(ctx, KindDelete, "Could not remove private group", "groups.close", nil)
}

// Delete deletes the group, by id when known and by name otherwise.
func (g *Group) Delete(ctx context.Context) error {
	body := map[string]any{"roomName": g.Name}
	if g.ID != "" {
		body = map[string]any{"roomId": g.ID}
	}
	_, err := g.session.call(ctx, KindDelete, "Could not delete a private group", http.MethodPost, "groups.delete", nil, body)
	return err
}

// Leave removes the calling user from the group.
func (g *Group) Leave(ctx context.Context) error {
	return g.roomAction(ctx, KindMembership, "Could not leave private group", "groups.leave", nil)
}

// Rename changes the group name. The local Name is updated on success.
func (g *Group) Rename(ctx context.Context, newName string) error {
	err := g.roomAction(ctx, KindUpdate, "Could not rename private group", "groups.rename", map[string]any{"name": newName})
	if err != nil {
		return err
	}
	g.Name = newName
	return nil
}

// SetTopic sets the group topic.
func (g *Group) SetTopic(ctx context.Context, topic string) error {
	return g.roomAction(ctx, KindUpdate, "Could not set the topic of a private group", "groups.setTopic", map[string]any{"topic": topic})
}

// Kick removes a user from the group.
func (g *Group) Kick(ctx context.Context, user UserRef) error {
	return g.memberAction(ctx, "groups.kick", user, "Could not kick user %s from group")
}

// Invite adds a user to the group.
func (g *Group) Invite(ctx context.Context, user UserRef) error {
	return g.memberAction(ctx, "groups.invite", user, "Could not invite user %s to the private group")
}

// AddOwner gives a user the owner role in the group.
func (g *Group) AddOwner(ctx context.Context, user UserRef) error {
	return g.memberAction(ctx, "groups.addOwner", user, "Could not add user %s as owner of private group")
}

// RemoveOwner takes the owner role in the group away from a user.
func (g *Group) RemoveOwner(ctx context.Context, user UserRef) error {
	return g.memberAction(ctx, "groups.removeOwner", user, "Could not remove user %s as owner of private group")
}

// memberAction resolves the member's id, fetching it for a *User that has
// none yet, and posts {roomId, userId} to endpoint.
func (g *Group) memberAction(ctx context.Context, endpoint string, user UserRef, format string) error {
	if u, ok := user.(*User); ok && u != nil {
		if err := u.ensureID(ctx); err != nil {
			return err
		}
	}
	if user == nil || isNilUser(user) || user.UserID() == "" {
		return &Error{Kind: KindMembership, Context: fmt.Sprintf(format, "?"), Detail: "no user id given"}
	}
	userID := user.UserID()
	return g.roomAction(ctx, KindMembership, fmt.Sprintf(format, userID), endpoint, map[string]any{"userId": userID})
}

func isNilUser(ref UserRef) bool {
	u, ok := ref.(*User)
	return ok && u == nil
}

// roomAction self-fetches the id and posts {roomId, extra...} to endpoint.
func (g *Group) roomAction(ctx context.Context, kind ErrorKind, errContext, endpoint string, extra map[string]any) error {
	if err := g.ensureID(ctx); err != nil {
		return err
	}
	body := map[string]any{"roomId": g.ID}
	for k, v := range extra {
		body[k] = v
	}
	_, err := g.session.call(ctx, kind, errContext, http.MethodPost, endpoint, nil, body)
	return err
}
