package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/rocketchat-mcp/internal/mcp/tools"
)

// AddTool registers a tool with the server after checking that the zero
// value of Out passes the JSON schema the SDK infers for it. Nil slices
// marshal as null and json.RawMessage fields are inferred as byte arrays,
// and both would otherwise fail only when the tool is first called.
//
// Use this instead of [sdkmcp.AddTool] to get the additional check.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
