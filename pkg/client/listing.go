package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Me returns the profile of the authenticated user. Like every other call it
// needs a 200 with "success": true; "status": "error" fails it as well.
func (s *Session) Me(ctx context.Context) (*UserRecord, error) {
	const errContext = "Could not get the authenticated user"

	resp, err := s.get(ctx, "me", nil)
	if err != nil {
		return nil, transportError(KindFetch, errContext, err)
	}
	var env envelope
	if resp.StatusCode != http.StatusOK || json.Unmarshal(resp.Body, &env) != nil || env.Status == "error" || env.Success == nil || !*env.Success {
		return nil, buildError(KindFetch, resp.StatusCode, resp.Body, errContext)
	}

	var me UserRecord
	if err := resp.decode(&me); err != nil {
		return nil, transportError(KindFetch, errContext, err)
	}
	return &me, nil
}

// ListUsers returns every user the caller is allowed to see.
func (s *Session) ListUsers(ctx context.Context) ([]UserRecord, error) {
	const errContext = "Could not list users"

	resp, err := s.call(ctx, KindFetch, errContext, http.MethodGet, "users.list", countAll, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Users []UserRecord `json:"users"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindFetch, errContext, err)
	}
	return out.Users, nil
}

// ListGroups returns the private groups the caller is a member of.
func (s *Session) ListGroups(ctx context.Context) ([]*Group, error) {
	return s.listGroups(ctx, "groups.list")
}

// ListAllGroups returns every private group on the server, regardless of the
// caller's membership. It requires administrative permissions.
func ListAllGroups(ctx context.Context, s *Session) ([]*Group, error) {
	return s.listGroups(ctx, "groups.listAll")
}

func (s *Session) listGroups(ctx context.Context, endpoint string) ([]*Group, error) {
	const errContext = "Could not list groups"

	resp, err := s.call(ctx, KindFetch, errContext, http.MethodGet, endpoint, countAll, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Groups []RoomRecord `json:"groups"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindFetch, errContext, err)
	}

	groups := make([]*Group, len(out.Groups))
	for i, rec := range out.Groups {
		groups[i] = GroupFromRecord(s, rec)
	}
	return groups, nil
}

// ListChannels returns the public channels the caller has access to.
func (s *Session) ListChannels(ctx context.Context) ([]*Channel, error) {
	const errContext = "Could not list channels"

	resp, err := s.call(ctx, KindFetch, errContext, http.MethodGet, "channels.list", countAll, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Channels []RoomRecord `json:"channels"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, transportError(KindFetch, errContext, err)
	}

	channels := make([]*Channel, len(out.Channels))
	for i, rec := range out.Channels {
		channels[i] = ChannelFromRecord(s, rec)
	}
	return channels, nil
}

// ListPermissions returns the raw permissions.listAll response body.
func (s *Session) ListPermissions(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.call(ctx, KindFetch, "Could not list permissions", http.MethodGet, "permissions.listAll", nil, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}
