// Package importer converts bank export files into ingest events.
package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// Format identifies a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatCAMT Format = "camt"
)

// Extensions lists the file extensions picked up when importing a directory.
var Extensions = []string{".csv", ".xml"}

// Reader turns an export into ingest events for one organization.
type Reader interface {
	Read(r io.Reader, orgID string) ([]models.IngestEvent, error)
}

// Options configures the readers.
type Options struct {
	CSVDelimiter rune
}

// NewReader returns the reader for a format.
func NewReader(format Format, lex *lexicon.Lexicon, opts Options, logger logging.Logger) (Reader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(lex.FieldAliases, opts.CSVDelimiter, logger), nil
	case FormatCAMT:
		return NewCAMTReader(logger), nil
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}
}

// DetectFormat guesses the format from the extension, then from content.
func DetectFormat(path string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xml", ".camt", ".053":
		return FormatCAMT, nil
	}

	trimmed := bytes.TrimSpace(head)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		if bytes.Contains(trimmed, []byte("BkToCstmrStmt")) || bytes.Contains(trimmed, []byte("camt.053")) {
			return FormatCAMT, nil
		}
		return "", &ingesterror.InvalidFormatError{FilePath: path, ExpectedFormat: "CAMT.053", Msg: "XML document is not a bank statement"}
	}
	if len(trimmed) > 0 {
		return FormatCSV, nil
	}
	return "", &ingesterror.InvalidFormatError{FilePath: path, ExpectedFormat: "CSV or CAMT.053", Msg: "empty file"}
}

// ReadFile detects the format of path and reads its events.
func ReadFile(path, orgID string, lex *lexicon.Lexicon, opts Options, logger logging.Logger) ([]models.IngestEvent, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close file", logging.Field{Key: logging.FieldFile, Value: path})
		}
	}()

	br := bufio.NewReader(f)
	head, _ := br.Peek(512)
	format, err := DetectFormat(path, head)
	if err != nil {
		return nil, err
	}

	reader, err := NewReader(format, lex, opts, logger)
	if err != nil {
		return nil, err
	}

	events, err := reader.Read(br, orgID)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	logger.Info("Read import file",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: "format", Value: string(format)},
		logging.Field{Key: logging.FieldCount, Value: len(events)})
	return events, nil
}
