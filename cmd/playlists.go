package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/listkit/internal/formatter"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/urfave/cli/v3"
)

func parseProvider(cmd *cli.Command) (models.Provider, error) {
	provider, err := models.ParseProvider(cmd.String("provider"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return provider, nil
}

// parsePrivacy returns "" when the flag is unset so the engine applies the configured default.
func parsePrivacy(cmd *cli.Command) (models.Privacy, error) {
	value := cmd.String("privacy")
	if value == "" {
		return "", nil
	}
	privacy, err := models.ParsePrivacy(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return privacy, nil
}

// ListPlaylists lists the current user's playlists.
func (r *Runner) ListPlaylists(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	r.logger.Debug("fetching playlists", "provider", provider)
	playlists, err := engine.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	return formatter.RenderPlaylists(r.output, provider, playlists)
}

// ShowPlaylist prints one playlist with its items, or writes an export when --output is set.
func (r *Runner) ShowPlaylist(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	id := cmd.String("id")
	playlist, err := engine.GetPlaylist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}

	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")
	if output == "" {
		data, err := formatter.Export(playlist, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	switch format {
	case formatter.FormatCSV:
		result, err := formatter.WriteCSVExport(playlist, output)
		if err != nil {
			return err
		}
		return r.writePlain("Exported %d items to %s and %s\n", len(playlist.Items), result.ItemsFile, result.MetadataFile)
	case formatter.FormatMarkdown, "md":
		path, err := formatter.WriteMarkdownExport(playlist, output)
		if err != nil {
			return err
		}
		return r.writePlain("Exported %d items to %s\n", len(playlist.Items), path)
	case formatter.FormatText, "text", "":
		path, err := formatter.WriteTextExport(playlist, output)
		if err != nil {
			return err
		}
		return r.writePlain("Exported %d items to %s\n", len(playlist.Items), path)
	default:
		data, err := formatter.Export(playlist, format)
		if err != nil {
			return err
		}
		return writeFile(output, data)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
