// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func providerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   "Playlist service (spotify, youtube)",
		Value:   "spotify",
	}
}

func privacyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "privacy",
		Usage: "Privacy of a created playlist (public, unlisted, private); defaults to orchestrator.default_privacy",
	}
}

func duplicatesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "allow-duplicates",
		Usage: "Add items the target already holds",
	}
}

func quietFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "Only log progress at debug level",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the journal database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the journal database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Inspect the current user's playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  []cli.Flag{providerFlag(), jsonFlag()},
				Action: r.ListPlaylists,
			},
			{
				Name:  "show",
				Usage: "Show or export one playlist with its items",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (txt, json, csv, markdown)",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file (csv: base path, markdown: directory) instead of stdout",
					},
				},
				Action: r.ShowPlaylist,
			},
		},
	}
}

func copyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "copy",
		Usage: "Copy one or more playlists; each source gets its own copy unless --target is set",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringSliceFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Source playlist ID (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Existing playlist to copy into",
			},
			privacyFlag(),
			duplicatesFlag(),
			quietFlag(),
			jsonFlag(),
		},
		Action: r.Copy,
	}
}

func mergeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "Merge several playlists into one",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringSliceFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Source playlist ID (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Existing playlist to merge into",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title of the created playlist",
			},
			privacyFlag(),
			duplicatesFlag(),
			quietFlag(),
			jsonFlag(),
		},
		Action: r.Merge,
	}
}

func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Collect the items of given artists from several playlists",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringSliceFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Source playlist ID (repeatable)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name, matched exactly (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Existing playlist to extract into",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title of the created playlist",
			},
			privacyFlag(),
			duplicatesFlag(),
			quietFlag(),
			jsonFlag(),
		},
		Action: r.Extract,
	}
}

func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shuffle",
		Usage: "Move a share of a playlist's items to random positions",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "ratio",
				Usage: "Share of items to move, between 0 and 1",
				Value: 0.5,
			},
			quietFlag(),
			jsonFlag(),
		},
		Action: r.Shuffle,
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a playlist someone else owns into a new playlist",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Source playlist ID",
				Required: true,
			},
			privacyFlag(),
			duplicatesFlag(),
			quietFlag(),
			jsonFlag(),
		},
		Action: r.Import,
	}
}

func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a playlist; history undo recreates it",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			quietFlag(),
			jsonFlag(),
		},
		Action: r.Delete,
	}
}

func structuredCommand(r *Runner) *cli.Command {
	fileFlag := &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Structured definition (JSON or YAML)",
		Required: true,
	}

	return &cli.Command{
		Name:    "structured",
		Aliases: []string{"st"},
		Usage:   "Synchronize a declared tree of playlists",
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Check a definition without contacting the provider",
				Flags:  []cli.Flag{fileFlag},
				Action: r.ValidateDefinition,
			},
			{
				Name:   "plan",
				Usage:  "Print the order in which playlists would be synced",
				Flags:  []cli.Flag{fileFlag, jsonFlag()},
				Action: r.PlanDefinition,
			},
			{
				Name:   "sync",
				Usage:  "Pull every dependency's items into its parent, leaves first",
				Flags:  []cli.Flag{fileFlag, quietFlag(), jsonFlag()},
				Action: r.SyncDefinition,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect and undo journaled operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List undoable commands, newest first",
				Flags:  []cli.Flag{providerFlag(), jsonFlag()},
				Action: r.ListHistory,
			},
			{
				Name:   "undo",
				Usage:  "Revert the most recent command",
				Flags:  []cli.Flag{providerFlag(), jsonFlag()},
				Action: r.Undo,
			},
			{
				Name:  "clear",
				Usage: "Forget every journaled command without reverting it",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm",
					},
				},
				Action: r.ClearHistory,
			},
		},
	}
}
