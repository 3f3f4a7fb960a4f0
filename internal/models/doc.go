// Package models defines the display-oriented data model shared by the
// Spotify facade and the tool layer.
//
// Every type is a flat struct with JSON tags: tool results are rendered by
// marshaling these values directly, so the field names here are the field
// names an MCP client sees.
//
//   - [Track] : song metadata with a playable URI
//   - [Playlist] : playlist metadata with track count
//   - [Device] : a playback device known to the account
//   - [Playback] : the currently playing track with progress
//
// Wire-format structs for the Spotify Web API live in the spotify package;
// they are mapped into these types at the facade boundary.
package models
