package main

import (
	"context"
	"fmt"
	"math"

	"github.com/desertthunder/listkit/internal/formatter"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/desertthunder/listkit/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Copy copies every --source. Without --target the copies run concurrently, each into its own
// new playlist; with a target they run one after another so duplicate detection sees earlier adds.
// A failed copy does not cancel the others.
func (r *Runner) Copy(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}
	privacy, err := parsePrivacy(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	sources := cmd.StringSlice("source")
	target := cmd.String("target")
	results := make([]*tasks.TransferResult, len(sources))

	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var g errgroup.Group
		if target != "" {
			g.SetLimit(1)
		}
		for i, source := range sources {
			g.Go(func() error {
				result, err := engine.Copy(ctx, progress, tasks.CopyOpts{
					SourceID:        source,
					TargetID:        target,
					Privacy:         privacy,
					AllowDuplicates: cmd.Bool("allow-duplicates"),
				})
				results[i] = result
				if err != nil {
					return fmt.Errorf("copy of %s failed: %w", source, err)
				}
				return nil
			})
		}
		return g.Wait()
	})

	for _, result := range results {
		if result == nil || result.Target.ID == "" {
			continue
		}
		if werr := r.writeTransfer(cmd, tasks.OpCopy, result); werr != nil {
			return werr
		}
	}
	return err
}

// Merge merges every --source into one playlist.
func (r *Runner) Merge(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}
	privacy, err := parsePrivacy(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	var result *tasks.TransferResult
	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Merge(ctx, progress, tasks.MergeOpts{
			SourceIDs:       cmd.StringSlice("source"),
			TargetID:        cmd.String("target"),
			Title:           cmd.String("title"),
			Privacy:         privacy,
			AllowDuplicates: cmd.Bool("allow-duplicates"),
		})
		return err
	})
	return r.finishTransfer(cmd, tasks.OpMerge, result, err)
}

// Extract collects the items of every --artist from every --source.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}
	privacy, err := parsePrivacy(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	var result *tasks.TransferResult
	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Extract(ctx, progress, tasks.ExtractOpts{
			SourceIDs:       cmd.StringSlice("source"),
			ArtistNames:     cmd.StringSlice("artist"),
			TargetID:        cmd.String("target"),
			Title:           cmd.String("title"),
			Privacy:         privacy,
			AllowDuplicates: cmd.Bool("allow-duplicates"),
		})
		return err
	})
	return r.finishTransfer(cmd, tasks.OpExtract, result, err)
}

// Import copies --source into a new "<title> - Imported" playlist.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}
	privacy, err := parsePrivacy(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	var result *tasks.TransferResult
	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Import(ctx, progress, tasks.ImportOpts{
			SourceID:        cmd.String("source"),
			Privacy:         privacy,
			AllowDuplicates: cmd.Bool("allow-duplicates"),
		})
		return err
	})
	return r.finishTransfer(cmd, tasks.OpImport, result, err)
}

// Shuffle moves a share of --target's items to random positions.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}

	ratio := cmd.Float("ratio")
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: --ratio must be between 0 and 1, got %v", shared.ErrInvalidArgument, ratio)
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	var result *tasks.ShuffleResult
	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Shuffle(ctx, progress, cmd.String("target"), ratio)
		return err
	})
	if result != nil && result.Target.ID != "" {
		var werr error
		if cmd.Bool("json") {
			werr = r.writeJSON(result, true)
		} else {
			werr = formatter.RenderShuffle(r.output, result)
		}
		if werr != nil {
			return werr
		}
	}
	return err
}

// Delete deletes --id after journaling a snapshot of it.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	var deleted *models.Playlist
	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		deleted, err = engine.DeletePlaylist(ctx, progress, cmd.String("id"))
		return err
	})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(deleted, true)
	}
	return r.writePlain("Deleted %s (%s), history undo recreates it\n", deleted.Title, deleted.ID)
}

// finishTransfer prints whatever part of result completed, then returns the operation's error.
func (r *Runner) finishTransfer(cmd *cli.Command, operation string, result *tasks.TransferResult, err error) error {
	if result != nil && result.Target.ID != "" {
		if werr := r.writeTransfer(cmd, operation, result); werr != nil {
			return werr
		}
	}
	return err
}

func (r *Runner) writeTransfer(cmd *cli.Command, operation string, result *tasks.TransferResult) error {
	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return formatter.RenderTransfer(r.output, operation, result)
}
