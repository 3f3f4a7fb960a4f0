package models

import "fmt"

// Track represents a playable song from the catalog or a playlist.
type Track struct {
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	URI      string `json:"uri"`
	Duration string `json:"duration,omitempty"`
}

// Playlist represents playlist metadata without its track listing.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner,omitempty"`
	URI        string `json:"uri"`
	TrackCount int    `json:"tracks"`
	Public     bool   `json:"public"`
}

// Device represents a playback device registered to the account.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"is_active"`
	Volume int    `json:"volume_percent"`
}

// Playback represents the currently playing track.
//
// Track fields are embedded so the marshaled object stays flat.
type Playback struct {
	Track
	IsPlaying bool   `json:"is_playing"`
	Progress  string `json:"progress,omitempty"`
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return ""
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
