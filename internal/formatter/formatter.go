// package formatter renders playlists, plans and journal history for the terminal and exports playlists to files (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
)

// Export formats accepted by [Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Export renders a playlist in the named format. "md" and "text" are accepted as aliases.
func Export(p *models.FullPlaylist, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return shared.MarshalJSON(p, true)
	case FormatCSV:
		return ExportToCSV(p)
	case FormatMarkdown, "md":
		return ExportToMarkdown(p)
	case FormatText, "text", "":
		return ExportToText(p)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q (json, csv, markdown, txt)", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts a playlist to CSV with columns: Position, ID, Title, Author, ResourceID, URL
func ExportToCSV(p *models.FullPlaylist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Author", "ResourceID", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range p.Items {
		record := []string{
			strconv.Itoa(item.Position),
			item.ID,
			item.Title,
			item.Author,
			item.ResourceID,
			item.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown, linking the thumbnail when there is one
func ExportToMarkdown(p *models.FullPlaylist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Title)

	if p.ThumbnailURL != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", p.ThumbnailURL)
	}

	fmt.Fprintf(&buf, "**Items**: %d\n", len(p.Items))
	fmt.Fprintf(&buf, "**Provider**: %s\n", p.Provider)
	if p.URL != "" {
		fmt.Fprintf(&buf, "**URL**: %s\n", p.URL)
	}

	buf.WriteString("\n## Items\n\n")
	for i, item := range p.Items {
		line := item.Title
		if item.URL != "" {
			line = fmt.Sprintf("[%s](%s)", item.Title, item.URL)
		}
		if item.Author != "" {
			line = item.Author + " - " + line
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text
func ExportToText(p *models.FullPlaylist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Title)
	if p.URL != "" {
		fmt.Fprintf(&buf, "URL: %s\n", p.URL)
	}
	fmt.Fprintf(&buf, "Items: %d\n\n", len(p.Items))

	for i, item := range p.Items {
		if item.Author != "" {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, item.Author, item.Title)
		} else {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, item.Title)
		}
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without items)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_items.csv and {base}_metadata.json
func WriteCSVExport(p *models.FullPlaylist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = p.ID
	}

	csvData, err := ExportToCSV(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_items.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(p.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{ItemsFile: itemsFile, MetadataFile: metadataFile}, nil
}

// WriteMarkdownExport writes {dir}/README.md for a playlist. The directory defaults to the playlist ID.
func WriteMarkdownExport(p *models.FullPlaylist, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = p.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_items.txt as the filename.
func WriteTextExport(p *models.FullPlaylist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_items.txt", p.ID)
	}

	textData, err := ExportToText(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}
