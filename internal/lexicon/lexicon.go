// Package lexicon loads the data tables that drive description
// canonicalization, bill-payment detection and import header sniffing.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fjacquet/txledger/internal/logging"
)

//go:embed default.yaml
var defaultData []byte

// Ingest fields that can be sniffed from import headers.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldExternalID  = "external_id"
	FieldIndicator   = "indicator"
	FieldAccount     = "account"
)

// Lexicon holds the data tables.
type Lexicon struct {
	Stopwords      []string            `yaml:"stopwords"`
	InvoicePhrases []string            `yaml:"invoice_phrases"`
	FieldAliases   map[string][]string `yaml:"field_aliases"`
}

// Default returns the embedded tables.
func Default() (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(defaultData, &lex); err != nil {
		return nil, fmt.Errorf("error parsing embedded lexicon: %w", err)
	}
	return &lex, nil
}

// Load returns the embedded tables overridden by the sections present in
// filename. An empty filename returns the defaults. A relative filename is
// looked up with FindFile.
func Load(filename string, logger logging.Logger) (*Lexicon, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	lex, err := Default()
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return lex, nil
	}

	path, err := FindFile(filename)
	if err != nil {
		return nil, fmt.Errorf("lexicon file %s: %w", filename, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading lexicon file: %w", err)
	}

	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("error parsing lexicon file %s: %w", path, err)
	}
	lex.merge(override)

	logger.Debug("Loaded lexicon overrides",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: "stopwords", Value: len(lex.Stopwords)},
		logging.Field{Key: "invoice_phrases", Value: len(lex.InvoicePhrases)},
		logging.Field{Key: "field_aliases", Value: len(lex.FieldAliases)},
	)
	return lex, nil
}

func (l *Lexicon) merge(o Lexicon) {
	if len(o.Stopwords) > 0 {
		l.Stopwords = o.Stopwords
	}
	if len(o.InvoicePhrases) > 0 {
		l.InvoicePhrases = o.InvoicePhrases
	}
	for field, aliases := range o.FieldAliases {
		if len(aliases) == 0 {
			continue
		}
		if l.FieldAliases == nil {
			l.FieldAliases = make(map[string][]string)
		}
		l.FieldAliases[field] = aliases
	}
}

// FindFile looks for filename in the current directory, ./config, and
// ~/.config/txledger.
func FindFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "txledger", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}
