// YouTube Data API v3 implementation of [ProviderRepository]
//
// Resource shapes based on https://developers.google.com/youtube/v3/docs
package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/listkit/internal/models"
	"golang.org/x/oauth2"
)

const (
	youtubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	youtubePageLimit = 50
	youtubeVideoKind = "youtube#video"
)

// YouTubeThumbnail is one resolution of a thumbnail.
type YouTubeThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeThumbnails maps resolution keys to thumbnails.
type YouTubeThumbnails struct {
	Default *YouTubeThumbnail `json:"default,omitempty"`
	Medium  *YouTubeThumbnail `json:"medium,omitempty"`
	High    *YouTubeThumbnail `json:"high,omitempty"`
}

// Best returns the highest resolution thumbnail URL available.
func (t YouTubeThumbnails) Best() string {
	for _, th := range []*YouTubeThumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.URL != "" {
			return th.URL
		}
	}
	return ""
}

// YouTubeResourceID identifies the media a playlist item points at.
type YouTubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubePlaylistSnippet struct {
	Title      string            `json:"title"`
	Thumbnails YouTubeThumbnails `json:"thumbnails"`
}

type youtubeStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

type youtubeContentDetails struct {
	ItemCount int `json:"itemCount"`
}

// YouTubePlaylist is a playlists resource.
type YouTubePlaylist struct {
	ID             string                 `json:"id"`
	Snippet        youtubePlaylistSnippet `json:"snippet"`
	Status         *youtubeStatus         `json:"status,omitempty"`
	ContentDetails youtubeContentDetails  `json:"contentDetails"`
}

type youtubeItemSnippet struct {
	PlaylistID             string            `json:"playlistId"`
	Title                  string            `json:"title,omitempty"`
	Position               int               `json:"position"`
	Thumbnails             YouTubeThumbnails `json:"thumbnails"`
	VideoOwnerChannelTitle string            `json:"videoOwnerChannelTitle,omitempty"`
	ResourceID             YouTubeResourceID `json:"resourceId"`
}

// YouTubePlaylistItem is a playlistItems resource.
type YouTubePlaylistItem struct {
	ID      string             `json:"id"`
	Snippet youtubeItemSnippet `json:"snippet"`
}

type youtubeList[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// YouTubeRepository implements [ProviderRepository] for the YouTube Data API v3.
type YouTubeRepository struct {
	client *client
}

// NewYouTubeRepository creates a repository against baseURL, defaulting to the public API.
func NewYouTubeRepository(baseURL string, opts ...ClientOption) *YouTubeRepository {
	if baseURL == "" {
		baseURL = youtubeBaseURL
	}
	return &YouTubeRepository{client: newClient(models.ProviderYouTube, baseURL, opts...)}
}

func (y *YouTubeRepository) Provider() models.Provider { return models.ProviderYouTube }

// GetMinePlaylists pages through the authenticated channel's playlists.
func (y *YouTubeRepository) GetMinePlaylists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error) {
	query := url.Values{
		"part":       {"snippet,contentDetails"},
		"mine":       {"true"},
		"maxResults": {strconv.Itoa(youtubePageLimit)},
	}

	var playlists []models.Playlist
	for {
		var page youtubeList[YouTubePlaylist]
		if err := y.client.do(ctx, token, "get_mine_playlists", http.MethodGet, "/playlists", query, nil, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Items {
			playlists = append(playlists, y.toPlaylist(p))
		}
		if page.NextPageToken == "" {
			return playlists, nil
		}
		query.Set("pageToken", page.NextPageToken)
	}
}

// GetFullPlaylist fetches the playlist resource then pages through its items.
func (y *YouTubeRepository) GetFullPlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.FullPlaylist, error) {
	var list youtubeList[YouTubePlaylist]
	query := url.Values{"part": {"snippet,contentDetails,status"}, "id": {playlistID}}
	if err := y.client.do(ctx, token, "get_full_playlist", http.MethodGet, "/playlists", query, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return nil, &Failure{
			Provider:   models.ProviderYouTube,
			Op:         "get_full_playlist",
			StatusCode: http.StatusNotFound,
			Message:    "playlist " + playlistID + " not found",
		}
	}

	full := &models.FullPlaylist{Playlist: y.toPlaylist(list.Items[0])}
	itemQuery := url.Values{
		"part":       {"snippet"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(youtubePageLimit)},
	}
	for {
		var page youtubeList[YouTubePlaylistItem]
		if err := y.client.do(ctx, token, "get_full_playlist", http.MethodGet, "/playlistItems", itemQuery, nil, &page); err != nil {
			return nil, err
		}
		for _, it := range page.Items {
			item := y.toItem(it)
			item.Position = len(full.Items)
			full.Items = append(full.Items, item)
		}
		if page.NextPageToken == "" {
			break
		}
		itemQuery.Set("pageToken", page.NextPageToken)
	}

	full.ItemsTotal = len(full.Items)
	return full, nil
}

// AddPlaylist inserts a playlist with the given privacy status.
func (y *YouTubeRepository) AddPlaylist(ctx context.Context, title string, privacy models.Privacy, token *oauth2.Token) (*models.Playlist, error) {
	if privacy == "" {
		privacy = models.PrivacyPrivate
	}
	body := YouTubePlaylist{
		Snippet: youtubePlaylistSnippet{Title: title},
		Status:  &youtubeStatus{PrivacyStatus: privacy.String()},
	}

	var created YouTubePlaylist
	query := url.Values{"part": {"snippet,status"}}
	if err := y.client.do(ctx, token, "add_playlist", http.MethodPost, "/playlists", query, body, &created); err != nil {
		return nil, err
	}

	playlist := y.toPlaylist(created)
	return &playlist, nil
}

// AddPlaylistItem appends a video to the end of the playlist.
func (y *YouTubeRepository) AddPlaylistItem(ctx context.Context, playlistID, resourceID string, token *oauth2.Token) (*models.PlaylistItem, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": YouTubeResourceID{Kind: youtubeVideoKind, VideoID: resourceID},
		},
	}

	var created YouTubePlaylistItem
	query := url.Values{"part": {"snippet"}}
	if err := y.client.do(ctx, token, "add_playlist_item", http.MethodPost, "/playlistItems", query, body, &created); err != nil {
		return nil, err
	}

	item := y.toItem(created)
	if item.ResourceID == "" {
		item.ResourceID = resourceID
	}
	return &item, nil
}

// UpdatePlaylistItemPosition sets the item's snippet position. YouTube requires the
// resource id to be resent with the update.
func (y *YouTubeRepository) UpdatePlaylistItemPosition(ctx context.Context, playlistID string, item models.PlaylistItem, newIndex int, token *oauth2.Token) (*models.PlaylistItem, error) {
	body := map[string]any{
		"id": item.ID,
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": YouTubeResourceID{Kind: youtubeVideoKind, VideoID: item.ResourceID},
			"position":   newIndex,
		},
	}

	var updated YouTubePlaylistItem
	query := url.Values{"part": {"snippet"}}
	if err := y.client.do(ctx, token, "update_playlist_item_position", http.MethodPut, "/playlistItems", query, body, &updated); err != nil {
		return nil, err
	}

	moved := item
	moved.Position = newIndex
	return &moved, nil
}

func (y *YouTubeRepository) DeletePlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.Playlist, error) {
	query := url.Values{"id": {playlistID}}
	if err := y.client.do(ctx, token, "delete_playlist", http.MethodDelete, "/playlists", query, nil, nil); err != nil {
		return nil, err
	}
	return &models.Playlist{ID: playlistID, Provider: models.ProviderYouTube}, nil
}

func (y *YouTubeRepository) DeletePlaylistItem(ctx context.Context, playlistID string, item models.PlaylistItem, token *oauth2.Token) error {
	query := url.Values{"id": {item.ID}}
	return y.client.do(ctx, token, "delete_playlist_item", http.MethodDelete, "/playlistItems", query, nil, nil)
}

func (y *YouTubeRepository) toPlaylist(p YouTubePlaylist) models.Playlist {
	return models.Playlist{
		ID:           p.ID,
		Title:        p.Snippet.Title,
		ThumbnailURL: p.Snippet.Thumbnails.Best(),
		ItemsTotal:   p.ContentDetails.ItemCount,
		URL:          "https://www.youtube.com/playlist?list=" + url.QueryEscape(p.ID),
		Provider:     models.ProviderYouTube,
	}
}

func (y *YouTubeRepository) toItem(it YouTubePlaylistItem) models.PlaylistItem {
	videoID := it.Snippet.ResourceID.VideoID
	return models.PlaylistItem{
		ID:           it.ID,
		Title:        it.Snippet.Title,
		ThumbnailURL: it.Snippet.Thumbnails.Best(),
		Position:     it.Snippet.Position,
		Author:       it.Snippet.VideoOwnerChannelTitle,
		ResourceID:   videoID,
		URL:          "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID),
	}
}

var _ ProviderRepository = (*YouTubeRepository)(nil)
