package models

// DefinitionVersion is the only supported structured definition version.
const DefinitionVersion = 1

// PlaylistDefinitionNode declares a playlist and the playlists it pulls items from.
type PlaylistDefinitionNode struct {
	ID           string                   `json:"id" yaml:"id" validate:"required"`
	Dependencies []PlaylistDefinitionNode `json:"dependencies,omitempty" yaml:"dependencies,omitempty" validate:"dive"`
}

// IsLeaf reports whether the node has no dependencies.
func (n PlaylistDefinitionNode) IsLeaf() bool {
	return len(n.Dependencies) == 0
}

// StructuredPlaylistsDefinition is a declared tree of playlists to synchronize.
type StructuredPlaylistsDefinition struct {
	Version   int                      `json:"version" yaml:"version" validate:"eq=1"`
	Name      string                   `json:"name" yaml:"name" validate:"required"`
	Provider  Provider                 `json:"provider" yaml:"provider" validate:"oneof=spotify youtube"`
	UserID    string                   `json:"user_id" yaml:"user_id" validate:"required"`
	Playlists []PlaylistDefinitionNode `json:"playlists" yaml:"playlists" validate:"min=1,dive"`
}
