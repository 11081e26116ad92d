// package services defines the ProviderRepository interface and implements it for Spotify and YouTube
package services

import (
	"context"

	"github.com/desertthunder/listkit/internal/models"
	"golang.org/x/oauth2"
)

// ProviderRepository is the narrow boundary between the orchestrator and a playlist provider.
//
// Every method returns a [*Failure] on error, carrying the provider's status code so callers can
// classify it with [Failure.Expired]. The token is passed per call; repositories hold no session.
type ProviderRepository interface {
	// Provider identifies the service this repository talks to.
	Provider() models.Provider

	// GetMinePlaylists lists the playlists owned by the token's user.
	GetMinePlaylists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error)

	// GetFullPlaylist fetches a playlist with all its items, in playlist order.
	GetFullPlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.FullPlaylist, error)

	// AddPlaylist creates an empty playlist.
	AddPlaylist(ctx context.Context, title string, privacy models.Privacy, token *oauth2.Token) (*models.Playlist, error)

	// AddPlaylistItem appends the media identified by resourceID to a playlist.
	AddPlaylistItem(ctx context.Context, playlistID, resourceID string, token *oauth2.Token) (*models.PlaylistItem, error)

	// UpdatePlaylistItemPosition moves item (at item.Position) to newIndex.
	UpdatePlaylistItemPosition(ctx context.Context, playlistID string, item models.PlaylistItem, newIndex int, token *oauth2.Token) (*models.PlaylistItem, error)

	// DeletePlaylist removes a playlist. The returned descriptor may hold only the id.
	DeletePlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.Playlist, error)

	// DeletePlaylistItem removes one entry from a playlist.
	DeletePlaylistItem(ctx context.Context, playlistID string, item models.PlaylistItem, token *oauth2.Token) error
}

// NewToken wraps a bearer access token obtained out of band.
func NewToken(accessToken string) *oauth2.Token {
	if accessToken == "" {
		return nil
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}
