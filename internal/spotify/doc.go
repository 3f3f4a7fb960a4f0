// Package spotify is a thin facade over the Spotify Web API.
//
// # Operations
//
// [Client] implements [Service]: track search, playback control, device
// and playlist listing. Every operation fetches a bearer token from its
// [TokenSource], issues one request (playlist playback issues up to
// three), and maps the wire response onto the flat display types in the
// models package.
//
// # Identifiers
//
// Operations accept either a bare resource id or a fully qualified URI of
// the form spotify:<type>:<id>. [NormalizeURI] and [ResourceID] convert
// between the two forms and are idempotent.
//
// # Error Classification
//
// Failures carry the API's structured reason code when one is present.
// Known codes and message substrings map onto the sentinel errors in the
// shared package; anything else surfaces as an [APIError] with the raw
// status and message.
package spotify
