// Package mcpsrv provides an extensible MCP server for Rocket.Chat.
//
// The server exposes users, private groups, channels and messaging as MCP
// tools, plus rocketchat://group/{name} and rocketchat://user/{username}
// resources. Callers can add their own tools, prompts and resources with
// functional options.
//
// # Basic Usage
//
//	session, err := mcpsrv.NewSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server, err := mcpsrv.NewServer(session)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// Run authenticates before serving: a ROCKETCHAT_AUTH_TOKEN/ROCKETCHAT_USER_ID
// pair is installed as is, otherwise ROCKETCHAT_USER/ROCKETCHAT_PASSWORD are
// used to log in, and the login is ended when Run returns.
//
// # Extension
//
//	type CountInput struct {
//	    Status string `json:"status"`
//	}
//
//	type CountOutput struct {
//	    Count int `json:"count"`
//	}
//
//	server, err := mcpsrv.NewServer(session,
//	    mcpsrv.WithDepsTool(&mcp.Tool{Name: "count_users", Description: "Count users by status"},
//	        func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                users, err := d.Session.ListUsers(ctx)
//	                if err != nil {
//	                    return nil, CountOutput{}, err
//	                }
//	                n := 0
//	                for _, u := range users {
//	                    if u.Status == in.Status {
//	                        n++
//	                    }
//	                }
//	                return nil, CountOutput{Count: n}, nil
//	            }
//	        }),
//	)
//
// # Configuration
//
// Settings come from the environment (ROCKETCHAT_URL, LOG_LEVEL, LOG_FILE,
// FETCH_WORKERS, ...). Logging can also be overridden per server:
//
//	server, err := mcpsrv.NewServer(session,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/rocketchat-mcp.log"),
//	)
package mcpsrv
