// Package ingest handles single-event ingestion from the command line
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fjacquet/txledger/cmd/root"
	"fjacquet/txledger/internal/models"
)

// Flags holds the event fields given on the command line
type Flags struct {
	JSONFile    string
	ExternalID  string
	Amount      string
	Description string
	Date        string
	AccountRef  string
	Indicator   string
}

var flags Flags

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a single transaction event",
	Long: `Ingest a single transaction event, given as flags or as a JSON document.

Examples:
  txledger ingest --org org-1 --amount -45.90 --description "POSTO IPIRANGA" --date 2024-03-15 --account bank-main
  txledger ingest --json event.json
  echo '{"amount":"10","description":"PIX","date":"2024-03-15"}' | txledger ingest --org org-1 --json -`,
	RunE: ingestFunc,
}

func init() {
	Cmd.Flags().StringVarP(&flags.JSONFile, "json", "j", "", "Read the event from a JSON file (- for stdin)")
	Cmd.Flags().StringVar(&flags.ExternalID, "external-id", "", "Upstream transaction id")
	Cmd.Flags().StringVarP(&flags.Amount, "amount", "a", "", "Signed amount")
	Cmd.Flags().StringVarP(&flags.Description, "description", "d", "", "Bank memo")
	Cmd.Flags().StringVarP(&flags.Date, "date", "t", "", "Booking date or timestamp")
	Cmd.Flags().StringVar(&flags.AccountRef, "account", "", "Upstream account reference")
	Cmd.Flags().StringVar(&flags.Indicator, "indicator", "", "Credit/debit indicator (CREDIT, DEBIT, CRDT, DBIT)")
}

func ingestFunc(cmd *cobra.Command, args []string) error {
	ev, err := BuildEvent(flags, root.OrganizationID(), cmd.InOrStdin())
	if err != nil {
		return err
	}

	c, err := root.GetContainer(cmd.Context())
	if err != nil {
		return err
	}

	res, ingestErr := c.GetEngine().Ingest(cmd.Context(), ev)
	if err := root.PrintJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	return ingestErr
}

// BuildEvent assembles the event from a JSON document or from the flags.
// A non-empty orgID overrides the organization of a JSON document.
func BuildEvent(f Flags, orgID string, stdin io.Reader) (models.IngestEvent, error) {
	var ev models.IngestEvent

	if f.JSONFile != "" {
		data, err := readInput(f.JSONFile, stdin)
		if err != nil {
			return ev, err
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			return ev, fmt.Errorf("error parsing event JSON: %w", err)
		}
		if orgID != "" {
			ev.OrganizationID = orgID
		}
		return ev, nil
	}

	amount, err := models.ParseAmount(f.Amount)
	if err != nil {
		return ev, fmt.Errorf("invalid --amount: %w", err)
	}
	return models.IngestEvent{
		ExternalID:           f.ExternalID,
		Amount:               amount,
		Description:          f.Description,
		Date:                 f.Date,
		AccountRef:           f.AccountRef,
		CreditDebitIndicator: f.Indicator,
		OrganizationID:       orgID,
	}, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return data, nil
}
