package mcpsrv

import (
	"github.com/usestring/rocketchat-mcp/internal/cache"
	"github.com/usestring/rocketchat-mcp/internal/config"
	"github.com/usestring/rocketchat-mcp/internal/query"
	"github.com/usestring/rocketchat-mcp/internal/schema"
	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Deps contains all dependencies available to custom tools.
// Custom tools share the session, group cache and engines of the builtin ones.
type Deps struct {
	Session  *client.Session
	Groups   *cache.GroupCache
	Config   *config.Config
	Query    *query.Engine
	Messages *schema.Validator
}
