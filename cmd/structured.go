package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/listkit/internal/formatter"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/structure"
	"github.com/desertthunder/listkit/internal/tasks"
	"github.com/urfave/cli/v3"
)

func loadDefinition(cmd *cli.Command) (*models.StructuredPlaylistsDefinition, error) {
	def, err := structure.LoadDefinition(cmd.String("file"))
	if err != nil {
		return nil, err
	}
	if err := structure.Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ValidateDefinition parses and validates --file without touching the provider.
func (r *Runner) ValidateDefinition(ctx context.Context, cmd *cli.Command) error {
	def, err := loadDefinition(cmd)
	if err != nil {
		return err
	}

	plan := structure.Plan(def)
	r.logger.Debug("definition valid", "name", def.Name, "levels", len(plan))
	return r.writePlain("%s is valid: %d playlists to sync on %s\n", def.Name, structure.CountExecutable(plan), def.Provider)
}

// PlanDefinition prints the bottom-up execution order of --file.
func (r *Runner) PlanDefinition(ctx context.Context, cmd *cli.Command) error {
	def, err := loadDefinition(cmd)
	if err != nil {
		return err
	}

	plan := structure.Plan(def)
	if cmd.Bool("json") {
		return r.writeJSON(plan, true)
	}
	return formatter.RenderPlan(r.output, def.Name, plan)
}

// SyncDefinition runs a structured sync against the provider named in --file.
func (r *Runner) SyncDefinition(ctx context.Context, cmd *cli.Command) error {
	def, err := loadDefinition(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, def.Provider)
	if err != nil {
		return err
	}

	var result *tasks.SyncResult
	err = r.track(cmd.Bool("quiet"), func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.SyncStructured(ctx, progress, def)
		return err
	})
	if result != nil {
		var werr error
		if cmd.Bool("json") {
			werr = r.writeJSON(result, true)
		} else {
			werr = formatter.RenderSync(r.output, result)
		}
		if werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("sync of %s failed: %w", def.Name, err)
	}
	return nil
}
