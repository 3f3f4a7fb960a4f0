// Package auth owns the access-token lifecycle for the Spotify Web API.
//
// # Token Lifecycle
//
// [Manager] holds the process-wide access token state: the token value and
// the deadline after which it must not be used. Callers never reason about
// expiry; they call [Manager.Token] before every outbound request and get a
// token that is valid for the request that follows.
//
// The check-and-refresh sequence runs under a single mutex, so concurrent
// callers that observe an expired token trigger exactly one grant.
//
// # Grant Flows
//
// The flow is selected per attempt from the configured credentials:
//
//   - refresh-token flow when a refresh credential is present, yielding
//     user-scoped tokens with playback permission
//   - client-credentials flow otherwise, yielding catalog-only tokens
//
// A failed refresh surfaces as [shared.ErrAuthFailed]; the manager never
// silently substitutes the reduced grant when a refresh credential exists.
//
// # Browser Authorization
//
// [OAuthConfig] builds the oauth2 configuration for the one-time
// authorization-code flow the auth command runs to mint a refresh token.
// The runtime grants above never open a browser.
package auth
