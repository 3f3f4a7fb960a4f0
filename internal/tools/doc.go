// Package tools registers the MCP tool surface over the spotify facade.
//
// # Tools
//
// search, play, currently-playing, devices, playlists, playlist-tracks,
// play-playlist, search-and-play, find-playlist-and-play, and
// debug-config. The two convenience tools chain two facade operations
// with client-side filtering in between and never run the second step
// when the first finds nothing.
//
// # Failure Handling
//
// Operation failures become successful text responses describing the
// problem; the result's error flag is never set. Empty results return a
// descriptive "not found" text instead of failing.
package tools
