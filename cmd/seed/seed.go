// Package seed loads reference data (accounts, mappings, categories, cost
// centers, rules) from a YAML file
package seed

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/txledger/cmd/root"
	"fjacquet/txledger/internal/ledger"
	"fjacquet/txledger/internal/logging"
)

var file string

// Cmd represents the seed command
var Cmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data from a YAML file",
	Long: `Upsert accounts, account mappings, categories, cost centers and rules
from a YAML document. Existing records with the same id are updated.

Example:
  txledger seed --file seed.yaml`,
	RunE: seedFunc,
}

func init() {
	Cmd.Flags().StringVarP(&file, "file", "f", "", "Seed YAML file")
	_ = Cmd.MarkFlagRequired("file")
}

func seedFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer(cmd.Context())
	if err != nil {
		return err
	}
	_, err = Apply(cmd.Context(), c.GetStore(), file, c.GetLogger())
	return err
}

// Apply loads path into the store and returns the number of records written.
func Apply(ctx context.Context, store *ledger.Store, path string, logger logging.Logger) (int, error) {
	s, err := ledger.LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	n, err := store.ApplySeed(ctx, s)
	if err != nil {
		return n, fmt.Errorf("error applying seed: %w", err)
	}
	logger.Info("Seed file loaded",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: n})
	return n, nil
}
