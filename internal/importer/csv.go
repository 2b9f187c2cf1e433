package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"fjacquet/txledger/internal/canonical"
	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// csvRow is a CSV line after its header was mapped to ingest fields.
type csvRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	ExternalID  string `csv:"external_id"`
	Indicator   string `csv:"indicator"`
	Account     string `csv:"account"`
}

var requiredFields = []string{lexicon.FieldDate, lexicon.FieldDescription, lexicon.FieldAmount}

// CSVReader reads delimited exports whose header names vary by bank. Column
// names are matched against the lexicon's field aliases.
type CSVReader struct {
	aliases   map[string]string // folded alias -> field
	delimiter rune
	logger    logging.Logger
}

// NewCSVReader creates a CSVReader. A zero delimiter means auto-detect
// between comma and semicolon.
func NewCSVReader(fieldAliases map[string][]string, delimiter rune, logger logging.Logger) *CSVReader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	aliases := make(map[string]string)
	for field, names := range fieldAliases {
		aliases[canonical.Fold(field)] = field
		for _, name := range names {
			aliases[canonical.Fold(name)] = field
		}
	}
	return &CSVReader{aliases: aliases, delimiter: delimiter, logger: logger}
}

// Read parses every data row. A row with an unparseable amount fails the
// whole file.
func (c *CSVReader) Read(r io.Reader, orgID string) ([]models.IngestEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(string(data)))
	cr.Comma = c.delimiter
	if cr.Comma == 0 {
		cr.Comma = sniffDelimiter(string(data))
	}
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ingesterror.InvalidFormatError{ExpectedFormat: "CSV with a header row", Msg: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	header, missing := c.mapHeader(first)
	if len(missing) > 0 {
		return nil, &ingesterror.InvalidFormatError{
			ExpectedFormat: "CSV with date, description and amount columns",
			Msg:            "missing columns for " + strings.Join(missing, ", "),
		}
	}

	var rows []*csvRow
	if err := gocsv.UnmarshalCSV(&headerMapper{reader: cr, header: header}, &rows); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	events := make([]models.IngestEvent, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.Date) == "" && strings.TrimSpace(row.Amount) == "" {
			continue
		}
		amount, err := models.ParseAmount(row.Amount)
		if err != nil {
			return nil, &ingesterror.MalformedInputError{Field: "amount", Value: row.Amount, Reason: fmt.Sprintf("line %d: %v", i+2, err)}
		}
		events = append(events, models.IngestEvent{
			ExternalID:           strings.TrimSpace(row.ExternalID),
			Amount:               amount,
			Description:          strings.TrimSpace(row.Description),
			Date:                 strings.TrimSpace(row.Date),
			AccountRef:           strings.TrimSpace(row.Account),
			CreditDebitIndicator: strings.TrimSpace(row.Indicator),
			OrganizationID:       orgID,
		})
	}

	c.logger.Debug("Successfully read rows from CSV file", logging.Field{Key: logging.FieldCount, Value: len(events)})
	return events, nil
}

func (c *CSVReader) field(column string) string {
	return c.aliases[canonical.Fold(column)]
}

func sniffDelimiter(data string) rune {
	first, _, _ := strings.Cut(data, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// mapHeader renames columns to ingest field names. Unknown columns get
// placeholder names gocsv ignores; only the first column claiming a field
// keeps it.
func (c *CSVReader) mapHeader(record []string) (mapped, missing []string) {
	mapped = make([]string, len(record))
	seen := make(map[string]bool)
	for i, col := range record {
		field := c.field(strings.TrimPrefix(col, "\ufeff"))
		if field == "" || seen[field] {
			mapped[i] = fmt.Sprintf("_ignored_%d", i)
			continue
		}
		seen[field] = true
		mapped[i] = field
	}

	for _, f := range requiredFields {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	return mapped, missing
}

// headerMapper replays the mapped header before the remaining records.
type headerMapper struct {
	reader *csv.Reader
	header []string
	sent   bool
}

func (h *headerMapper) Read() ([]string, error) {
	if !h.sent {
		h.sent = true
		return h.header, nil
	}
	return h.reader.Read()
}

func (h *headerMapper) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		record, err := h.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
}
