// Package client provides a Go SDK for the Rocket.Chat REST API.
//
// The SDK wraps the users, private groups, channels, chat, subscriptions and
// permissions endpoints. Every method issues one blocking HTTP request (plus,
// at most, one info lookup to learn a missing id) and translates the JSON
// response into a value or an *Error.
//
// # Quick Start
//
// Create a session, log in, and post to a group:
//
//	s := client.New("https://chat.example.com/api/v1")
//	me := client.NewUser(s, "bot", "secret")
//	if _, err := me.Login(ctx, true); err != nil {
//	    return err
//	}
//	err := client.NewGroup(s, "ops").PostMessage(ctx, "deploy finished")
//
// # Resources Are Local Proxies
//
// User and Group values are created client-side and may describe accounts
// or rooms that do not exist yet. They learn their server id from Create,
// Login or Info. Methods that need an id call Info first when it is
// missing:
//
//	g := client.NewGroup(s, "ops")
//	err := g.Invite(ctx, client.UserID("a1b2c3")) // groups.info, then groups.invite
//
// Deleting a resource on the server does not invalidate the local value.
//
// # Credentials
//
// Authentication headers live in a Credentials value shared by sessions.
// By default every Session uses DefaultCredentials, so a Login with persist
// set authenticates every session in the process as that user. To act as
// several users at once, give each session its own Credentials:
//
//	admin := client.New(url, client.WithCredentials(client.NewCredentials()))
//
// # Errors
//
// A response is successful only when it is HTTP 200 and carries
// "success": true ("status": "success" for login). Anything else is
// returned as an *Error whose Kind names the failed operation family and
// whose Detail is the server's "error" field or raw body:
//
//	if errors.Is(err, client.ErrNotFound) {
//	    // group or user lookup failed
//	}
//
// Logout is the exception: it reports failure as false.
package client
