// Package services defines the [ProviderRepository] interface for playlist providers and implements it
// for Spotify and YouTube.
//
// # Repository Interface
//
// The orchestrator and the journal reach providers only through [ProviderRepository]. Each call takes
// the bearer token explicitly; repositories keep no session state and cache nothing between calls.
//
// # Spotify Implementation
//
// [SpotifyRepository] talks to the Spotify Web API. Item ids are track ids and resource ids are track URIs.
// Deleting a playlist unfollows it.
//
// # YouTube Implementation
//
// [YouTubeRepository] talks to the YouTube Data API v3 playlists and playlistItems endpoints.
// Item ids are playlistItem ids and resource ids are video ids.
//
// # HTTP Client
//
// Both repositories share one JSON client built on [oauth2.NewClient] with a static token source and a
// [rate.Limiter]. A nil or expired token fails locally with status 401 and no request is sent.
//
// # Error Handling
//
// Every error is a [*Failure] carrying the provider status code (0 for transport errors):
//   - 401 wraps [shared.ErrTokenExpired] and is never retried
//   - 404 wraps [shared.ErrPlaylistNotFound]
//   - 429/503 wrap [shared.ErrServiceUnavailable]
//   - anything else wraps [shared.ErrAPIRequest]
//
// # Retry
//
// [Retry] applies one [RetryPolicy] to any call: a fixed number of total attempts with a fixed delay,
// stopping early on success, on [Failure.Expired], or when the context ends.
package services
