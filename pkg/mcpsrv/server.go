package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/internal/cache"
	"github.com/usestring/rocketchat-mcp/internal/config"
	"github.com/usestring/rocketchat-mcp/internal/logging"
	"github.com/usestring/rocketchat-mcp/internal/mcp"
	"github.com/usestring/rocketchat-mcp/internal/mcp/tools"
	"github.com/usestring/rocketchat-mcp/internal/query"
	"github.com/usestring/rocketchat-mcp/internal/schema"
	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// logoutTimeout bounds the logout performed when Run returns.
const logoutTimeout = 5 * time.Second

// NewSession builds a session for ROCKETCHAT_URL with its own credential
// store, so the server's identity never leaks into client.DefaultCredentials.
func NewSession() (*client.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.RocketChat.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RocketChat.Timeout()}),
		client.WithCredentials(client.NewCredentials()),
	), nil
}

// Server is the Rocket.Chat MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	session    *client.Session
	cfg        *serverConfig
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin Rocket.Chat tools.
//
// The session parameter is required and is the identity every tool acts
// as. Use functional options to configure logging, add custom tools, etc.
func NewServer(s *client.Session, opts ...Option) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("session is required")
	}

	appCfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := &serverConfig{config: appCfg}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logCfg := logging.FromConfig(cfg.config.Log)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	groups, err := cache.NewGroupCache(s, cfg.config.Server.GroupCacheMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create group cache: %w", err)
	}
	validator, err := schema.NewMessageValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to build message schema: %w", err)
	}
	queryEngine := query.NewEngine()

	toolDeps := &tools.Deps{
		Session:  s,
		Groups:   groups,
		Config:   cfg.config,
		Query:    queryEngine,
		Messages: validator,
	}
	deps := &Deps{
		Session:  s,
		Groups:   groups,
		Config:   cfg.config,
		Query:    queryEngine,
		Messages: validator,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		session:    s,
		cfg:        cfg,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run authenticates the session and serves MCP over stdio until the
// context is cancelled. A password login is ended before Run returns.
func (s *Server) Run(ctx context.Context) error {
	user, err := s.authenticate(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		defer func() {
			logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
			defer cancel()
			if !user.Logout(logoutCtx, nil) {
				slog.Warn("logout failed", slog.String("user", user.Username))
			}
		}()
	}
	return s.internal.Run(ctx)
}

// authenticate installs configured credentials on the session. It returns
// the logged-in user when a password login was performed.
func (s *Server) authenticate(ctx context.Context) (*client.User, error) {
	if s.cfg.skipAuth {
		return nil, nil
	}

	rc := s.cfg.config.RocketChat
	switch {
	case rc.HasToken():
		s.session.Credentials().Set(rc.AuthToken, rc.UserID)
		slog.Info("using configured access token", slog.String("user_id", rc.UserID))
		return nil, nil

	case rc.HasPassword():
		user := client.NewUser(s.session, rc.User, rc.Password)
		if _, err := user.Login(ctx, true); err != nil {
			return nil, fmt.Errorf("logging in as %s: %w", rc.User, err)
		}
		slog.Info("logged in", slog.String("user", rc.User), slog.String("user_id", user.ID))
		return user, nil

	default:
		slog.Warn("no Rocket.Chat credentials configured, requests are unauthenticated")
		return nil, nil
	}
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server, e.g. to serve it over a
// transport other than stdio.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
