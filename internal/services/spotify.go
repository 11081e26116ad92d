// Spotify Web API implementation of [ProviderRepository]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/listkit/internal/models"
	"golang.org/x/oauth2"
)

const (
	spotifyBaseURL   = "https://api.spotify.com/v1"
	spotifyPageLimit = 50
	spotifyTrackURI  = "spotify:track:"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyUser is the subset of the current user's profile needed to create playlists.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []SpotifyArtist     `json:"artists"`
	Album        SpotifyAlbum        `json:"album"`
	URI          string              `json:"uri"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
}

// SpotifyAlbum represents the album a track belongs to.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type spotifyTrackCount struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a simplified playlist object.
type SpotifyPlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Public       bool                `json:"public"`
	Tracks       spotifyTrackCount   `json:"tracks"`
	Images       []SpotifyImage      `json:"images"`
	URI          string              `json:"uri"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for unavailable media.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type spotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

type spotifySnapshot struct {
	SnapshotID string `json:"snapshot_id"`
}

// SpotifyRepository implements [ProviderRepository] for the Spotify Web API.
type SpotifyRepository struct {
	client *client
}

// NewSpotifyRepository creates a repository against baseURL, defaulting to the public API.
func NewSpotifyRepository(baseURL string, opts ...ClientOption) *SpotifyRepository {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyRepository{client: newClient(models.ProviderSpotify, baseURL, opts...)}
}

func (s *SpotifyRepository) Provider() models.Provider { return models.ProviderSpotify }

// GetMinePlaylists pages through /me/playlists.
func (s *SpotifyRepository) GetMinePlaylists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error) {
	var playlists []models.Playlist
	for offset := 0; ; {
		var page spotifyPage[SpotifyPlaylist]
		query := pageQuery(offset, spotifyPageLimit)
		if err := s.client.do(ctx, token, "get_mine_playlists", http.MethodGet, "/me/playlists", query, nil, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Items {
			playlists = append(playlists, s.toPlaylist(p))
		}
		if page.Next == nil || len(page.Items) == 0 {
			return playlists, nil
		}
		offset += len(page.Items)
	}
}

// GetFullPlaylist fetches playlist metadata then pages through its tracks.
func (s *SpotifyRepository) GetFullPlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.FullPlaylist, error) {
	var sp SpotifyPlaylist
	path := "/playlists/" + url.PathEscape(playlistID)
	query := url.Values{"fields": {"id,name,public,tracks(total),images,uri,external_urls"}}
	if err := s.client.do(ctx, token, "get_full_playlist", http.MethodGet, path, query, nil, &sp); err != nil {
		return nil, err
	}

	full := &models.FullPlaylist{Playlist: s.toPlaylist(sp)}
	offset := 0
	for {
		var page spotifyPage[SpotifyPlaylistTrack]
		if err := s.client.do(ctx, token, "get_full_playlist", http.MethodGet, path+"/tracks", pageQuery(offset, 100), nil, &page); err != nil {
			return nil, err
		}
		// Unavailable entries are skipped but still occupy their index remotely.
		for i, entry := range page.Items {
			if entry.Track == nil || entry.Track.URI == "" {
				continue
			}
			item := s.toItem(*entry.Track)
			item.Position = offset + i
			full.Items = append(full.Items, item)
		}
		offset += len(page.Items)
		if page.Next == nil || len(page.Items) == 0 {
			break
		}
	}

	// ItemsTotal counts every remote entry, so it can exceed len(Items).
	full.ItemsTotal = offset
	return full, nil
}

// AddPlaylist resolves the current user and creates a playlist owned by them.
//
// Spotify has no unlisted state; anything but public is created private.
func (s *SpotifyRepository) AddPlaylist(ctx context.Context, title string, privacy models.Privacy, token *oauth2.Token) (*models.Playlist, error) {
	var me SpotifyUser
	if err := s.client.do(ctx, token, "add_playlist", http.MethodGet, "/me", nil, nil, &me); err != nil {
		return nil, err
	}

	body := map[string]any{"name": title, "public": privacy == models.PrivacyPublic}
	var created SpotifyPlaylist
	path := "/users/" + url.PathEscape(me.ID) + "/playlists"
	if err := s.client.do(ctx, token, "add_playlist", http.MethodPost, path, nil, body, &created); err != nil {
		return nil, err
	}

	playlist := s.toPlaylist(created)
	return &playlist, nil
}

// AddPlaylistItem appends a track. resourceID may be a bare track id or a spotify URI.
func (s *SpotifyRepository) AddPlaylistItem(ctx context.Context, playlistID, resourceID string, token *oauth2.Token) (*models.PlaylistItem, error) {
	uri := spotifyURI(resourceID)
	body := map[string]any{"uris": []string{uri}}
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.client.do(ctx, token, "add_playlist_item", http.MethodPost, path, nil, body, &spotifySnapshot{}); err != nil {
		return nil, err
	}
	return &models.PlaylistItem{ID: strings.TrimPrefix(uri, spotifyTrackURI), ResourceID: uri, Position: -1}, nil
}

// UpdatePlaylistItemPosition reorders one track. Spotify inserts before an index in the
// pre-move list, so moving down shifts the target by one.
func (s *SpotifyRepository) UpdatePlaylistItemPosition(ctx context.Context, playlistID string, item models.PlaylistItem, newIndex int, token *oauth2.Token) (*models.PlaylistItem, error) {
	insertBefore := newIndex
	if newIndex > item.Position {
		insertBefore = newIndex + 1
	}
	body := map[string]any{"range_start": item.Position, "insert_before": insertBefore, "range_length": 1}
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.client.do(ctx, token, "update_playlist_item_position", http.MethodPut, path, nil, body, &spotifySnapshot{}); err != nil {
		return nil, err
	}
	moved := item
	moved.Position = newIndex
	return &moved, nil
}

// DeletePlaylist unfollows the playlist, which is how Spotify deletes owned playlists.
func (s *SpotifyRepository) DeletePlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.Playlist, error) {
	path := "/playlists/" + url.PathEscape(playlistID) + "/followers"
	if err := s.client.do(ctx, token, "delete_playlist", http.MethodDelete, path, nil, nil, nil); err != nil {
		return nil, err
	}
	return &models.Playlist{ID: playlistID, Provider: models.ProviderSpotify}, nil
}

// DeletePlaylistItem removes the track at item.Position. Without a position Spotify
// removes every occurrence of the URI.
func (s *SpotifyRepository) DeletePlaylistItem(ctx context.Context, playlistID string, item models.PlaylistItem, token *oauth2.Token) error {
	uri := item.ResourceID
	if uri == "" {
		uri = item.ID
	}
	track := map[string]any{"uri": spotifyURI(uri)}
	if item.Position >= 0 {
		track["positions"] = []int{item.Position}
	}
	body := map[string]any{"tracks": []map[string]any{track}}
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	return s.client.do(ctx, token, "delete_playlist_item", http.MethodDelete, path, nil, body, &spotifySnapshot{})
}

func (s *SpotifyRepository) toPlaylist(p SpotifyPlaylist) models.Playlist {
	return models.Playlist{
		ID:           p.ID,
		Title:        p.Name,
		ThumbnailURL: firstImage(p.Images),
		ItemsTotal:   p.Tracks.Total,
		URL:          p.ExternalURLs.Spotify,
		Provider:     models.ProviderSpotify,
	}
}

// toItem maps a track. Author is the primary artist.
func (s *SpotifyRepository) toItem(t SpotifyTrack) models.PlaylistItem {
	var author string
	if len(t.Artists) > 0 {
		author = t.Artists[0].Name
	}
	return models.PlaylistItem{
		ID:           t.ID,
		Title:        t.Name,
		ThumbnailURL: firstImage(t.Album.Images),
		Author:       author,
		ResourceID:   t.URI,
		URL:          t.ExternalURLs.Spotify,
	}
}

func spotifyURI(resourceID string) string {
	if strings.HasPrefix(resourceID, "spotify:") {
		return resourceID
	}
	return spotifyTrackURI + resourceID
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func pageQuery(offset, limit int) url.Values {
	return url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
}

var _ ProviderRepository = (*SpotifyRepository)(nil)

// String implements [fmt.Stringer].
func (s *SpotifyRepository) String() string {
	return fmt.Sprintf("SpotifyRepository(%s)", s.client.baseURL)
}
