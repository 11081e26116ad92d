// package models defines the data model shared by the orchestrator, the journal and the provider adapters
package models

import (
	"fmt"
	"strings"
)

// Provider identifies one of the two supported playlist services.
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderYouTube Provider = "youtube"
)

// ParseProvider maps user input (case-insensitive, with common aliases) to a [Provider].
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spotify", "spot":
		return ProviderSpotify, nil
	case "youtube", "yt", "ytmusic":
		return ProviderYouTube, nil
	default:
		return "", fmt.Errorf("unknown provider %q (must be 'spotify' or 'youtube')", s)
	}
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	return p == ProviderSpotify || p == ProviderYouTube
}

func (p Provider) String() string { return string(p) }

// Privacy is the visibility of a newly created playlist.
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyUnlisted Privacy = "unlisted"
	PrivacyPrivate  Privacy = "private"
)

// ParsePrivacy maps user input to a [Privacy]. An empty string is [PrivacyPrivate].
func ParsePrivacy(s string) (Privacy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "private":
		return PrivacyPrivate, nil
	case "public":
		return PrivacyPublic, nil
	case "unlisted":
		return PrivacyUnlisted, nil
	default:
		return "", fmt.Errorf("unknown privacy %q (must be public, unlisted or private)", s)
	}
}

func (p Privacy) String() string { return string(p) }

// Playlist is a playlist descriptor as returned by a provider.
type Playlist struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	ItemsTotal   int      `json:"items_total"`
	URL          string   `json:"url,omitempty"`
	Provider     Provider `json:"provider"`
}

// PlaylistItem is a single entry of a playlist.
//
// ResourceID identifies the underlying media and is what gets re-added elsewhere;
// ID identifies the entry itself within its playlist.
type PlaylistItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Position     int    `json:"position"`
	Author       string `json:"author"`
	ResourceID   string `json:"resource_id"`
	URL          string `json:"url,omitempty"`
}

// FullPlaylist is a playlist with its items. Slice order is playlist order.
type FullPlaylist struct {
	Playlist
	Items []PlaylistItem `json:"items"`
}

// ResourceSet returns the set of resource ids currently in the playlist.
func (f *FullPlaylist) ResourceSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.Items))
	for _, item := range f.Items {
		set[item.ResourceID] = struct{}{}
	}
	return set
}
