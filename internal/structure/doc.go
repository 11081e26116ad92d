// Package structure validates and plans structured playlist definitions.
//
// A definition is a forest of [models.PlaylistDefinitionNode]. A dependency "provides items to" its
// parent, so syncing runs bottom-up: [Plan] reverses the breadth-first levels of the tree.
//
// The same playlist id may appear in unrelated branches. Nodes are therefore flattened into
// [Handle]s (their position in the tree) and the checks compare ids only where repetition matters:
//   - [HasCycle] unions the children of every occurrence of an id and looks for a back edge
//   - [HasInvalidStructure] rejects an id repeated among siblings or along one root-to-leaf path
//
// [ParseDefinition] and [ParseDefinitionYAML] turn a document into a typed definition or a
// [*DefinitionError] with a stable [ErrorCode].
package structure
