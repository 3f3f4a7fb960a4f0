// Package server runs the short-lived localhost HTTP server behind the
// browser authorization flow.
//
// # Router Infrastructure
//
// [Router] is an http.Handler assembled from registered handlers and
// [Middleware]. Middleware wraps in reverse registration order, so the
// first Use call becomes the outermost layer. [BasicRouter] routes
// through an [http.ServeMux], using method patterns for
// [BasicRouter.Handle].
//
// # OAuth Callback
//
// [OAuthHandler] implements the authorization-code callback: it validates
// the state parameter, exchanges the code for a token set, and hands the
// outcome to the waiting command through a single-use channel. Replayed
// callbacks are rejected.
//
// The auth command starts an [http.Server] with this package's router on
// the configured host and port, opens the authorization URL in the
// browser, and shuts the server down once the flow completes or times
// out.
package server
