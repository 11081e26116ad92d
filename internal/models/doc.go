// Package models defines the provider-agnostic data transfer objects used across listkit.
//
// The package contains two groups of types:
//
// 1. Provider DTOs: transient values fetched per call and never cached across operations
//   - [Playlist] : playlist descriptor (id, title, thumbnail, item count, url, provider)
//   - [PlaylistItem] : one entry with its 0-based position and opaque resource id
//   - [FullPlaylist] : a [Playlist] plus its ordered items
//
// 2. Structured definitions: the declared dependency tree consumed by the structure package
//   - [StructuredPlaylistsDefinition] : versioned document naming a provider, a user and root nodes
//   - [PlaylistDefinitionNode] : a playlist id with ordered dependencies
//
// [Provider] and [Privacy] are closed string enums with Parse helpers for CLI input.
package models
