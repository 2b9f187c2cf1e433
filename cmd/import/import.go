// Package importcmd imports bank export files (CSV, CAMT.053) into the ledger
package importcmd

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"fjacquet/txledger/cmd/root"
	"fjacquet/txledger/internal/fileutils"
	"fjacquet/txledger/internal/importer"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

var delimiter string

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import [files or directories...]",
	Short: "Import bank export files",
	Long: `Import CSV or CAMT.053 exports. Directories are scanned for .csv and .xml
files. Every row goes through the same deduplication as live ingestion, so
re-importing an overlapping export only stores the new transactions.

Example:
  txledger import --org org-1 exports/ statement-march.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV delimiter (default: import.csv_delimiter, sniffed when empty)")
}

// BatchIngester stores a list of events.
type BatchIngester interface {
	IngestBatch(ctx context.Context, events []models.IngestEvent) ([]models.IngestResult, *models.IngestStats)
}

func importFunc(cmd *cobra.Command, args []string) error {
	orgID := root.OrganizationID()
	if orgID == "" {
		return fmt.Errorf("an organization is required: use --org or import.organization_id")
	}

	files, err := fileutils.ExpandPaths(args, importer.Extensions...)
	if err != nil {
		return err
	}

	c, err := root.GetContainer(cmd.Context())
	if err != nil {
		return err
	}

	delim := delimiter
	if delim == "" {
		delim = c.GetConfig().Import.CSVDelimiter
	}
	opts, err := Options(delim)
	if err != nil {
		return err
	}

	stats, err := Import(cmd.Context(), c.GetEngine(), c.GetLexicon(), files, orgID, opts, c.GetLogger())
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd.OutOrStdout(), stats)
}

// Options converts a delimiter setting into reader options.
func Options(delim string) (importer.Options, error) {
	switch utf8.RuneCountInString(delim) {
	case 0:
		return importer.Options{}, nil
	case 1:
		r, _ := utf8.DecodeRuneInString(delim)
		return importer.Options{CSVDelimiter: r}, nil
	default:
		return importer.Options{}, fmt.Errorf("delimiter must be a single character, got: %s", delim)
	}
}

// Import reads every file and ingests its events. A file that cannot be read
// is logged and counted as failed without stopping the run.
func Import(ctx context.Context, ingester BatchIngester, lex *lexicon.Lexicon, files []string, orgID string, opts importer.Options, logger logging.Logger) (*models.IngestStats, error) {
	total := models.NewIngestStats()
	var readErrors int

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		events, err := importer.ReadFile(file, orgID, lex, opts, logger)
		if err != nil {
			readErrors++
			logger.WithError(err).Error("Failed to read import file",
				logging.Field{Key: logging.FieldFile, Value: file})
			continue
		}

		_, stats := ingester.IngestBatch(ctx, events)
		stats.LogSummary(logger, file)
		total.Total += stats.Total
		total.Inserted += stats.Inserted
		total.Skipped += stats.Skipped
		total.Failed += stats.Failed
	}

	total.LogSummary(logger, "import")
	if readErrors > 0 && readErrors == len(files) {
		return total, fmt.Errorf("no file could be read (%d failed)", readErrors)
	}
	return total, nil
}
