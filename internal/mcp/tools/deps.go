package tools

import (
	"github.com/usestring/rocketchat-mcp/internal/cache"
	"github.com/usestring/rocketchat-mcp/internal/config"
	"github.com/usestring/rocketchat-mcp/internal/query"
	"github.com/usestring/rocketchat-mcp/internal/schema"
	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Session  *client.Session
	Groups   *cache.GroupCache
	Config   *config.Config
	Query    *query.Engine
	Messages *schema.Validator
}

// user returns an id-less User proxy bound to the server session.
func (d *Deps) user(username string) *client.User {
	return client.NewUser(d.Session, username, "")
}
