package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/internal/mcp/tools"
	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Resource URI scheme: rocketchat://
// Supported URIs:
//   rocketchat://group/{name}
//   rocketchat://user/{username}

const scheme = "rocketchat://"

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: scheme + "group/{name}",
		Name:        "Private Group",
		Description: "Server record of a private group: id, topic, member usernames, message count.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceGroup)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: scheme + "user/{username}",
		Name:        "User",
		Description: "Server record of a user account, including roles and custom fields.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceUser)
}

func (s *Server) handleResourceGroup(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	name, err := parseResourceURI(req.Params.URI, "group")
	if err != nil {
		return nil, err
	}

	g := s.deps.Groups.Get(name)
	rec, err := g.Info(ctx)
	if err != nil {
		return nil, resourceError(req.Params.URI, err)
	}
	s.deps.Groups.Put(g)
	return toResourceResult(req.Params.URI, rec)
}

func (s *Server) handleResourceUser(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	username, err := parseResourceURI(req.Params.URI, "user")
	if err != nil {
		return nil, err
	}

	rec, err := client.NewUser(s.deps.Session, username, "").Info(ctx)
	if err != nil {
		return nil, resourceError(req.Params.URI, err)
	}
	return toResourceResult(req.Params.URI, rec)
}

// parseResourceURI returns the unescaped name in rocketchat://{kind}/{name}.
func parseResourceURI(uri, kind string) (string, error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", tools.ErrInvalidInput("invalid URI scheme: expected " + scheme)
	}

	path := strings.TrimPrefix(uri, scheme)
	gotKind, raw, ok := strings.Cut(path, "/")
	if !ok || gotKind != kind {
		return "", tools.ErrInvalidInput(fmt.Sprintf("expected %s%s/{name}, got %s", scheme, kind, uri))
	}
	name, err := url.PathUnescape(raw)
	if err != nil || name == "" || strings.Contains(name, "/") {
		return "", tools.ErrInvalidInput(fmt.Sprintf("invalid %s name in %s", kind, uri))
	}
	return name, nil
}

func resourceError(uri string, err error) error {
	if client.IsNotFound(err) {
		return sdkmcp.ResourceNotFoundError(uri)
	}
	return tools.WrapRocketChatError(err)
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
