// Package classify runs batch category suggestion from the command line
package classify

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/txledger/cmd/root"
	"fjacquet/txledger/internal/models"
)

var (
	pending bool
	limit   int
)

// Cmd represents the classify command
var Cmd = &cobra.Command{
	Use:   "classify [transaction ids...]",
	Short: "Suggest categories for transactions",
	Long: `Generate category suggestions for the given transactions, or for every
transaction still pending validation with --pending. Suggestions are stored
for review; transactions are not modified.

Examples:
  txledger classify --org org-1 3f0c... 9a1b...
  txledger classify --org org-1 --pending --limit 200`,
	RunE: classifyFunc,
}

func init() {
	Cmd.Flags().BoolVar(&pending, "pending", false, "Classify transactions pending validation")
	Cmd.Flags().IntVar(&limit, "limit", 500, "Maximum number of pending transactions")
}

// PendingLister lists transactions awaiting validation.
type PendingLister interface {
	PendingTransactionIDs(ctx context.Context, orgID string, limit int) ([]string, error)
}

func classifyFunc(cmd *cobra.Command, args []string) error {
	orgID := root.OrganizationID()
	if orgID == "" {
		return fmt.Errorf("an organization is required: use --org or import.organization_id")
	}

	c, err := root.GetContainer(cmd.Context())
	if err != nil {
		return err
	}

	req, err := BuildRequest(cmd.Context(), c.GetStore(), orgID, args, pending, limit)
	if err != nil {
		return err
	}
	if len(req.TransactionIDs) == 0 {
		c.GetLogger().Info("Nothing to classify")
		return root.PrintJSON(cmd.OutOrStdout(), models.BatchResult{Success: true, Suggestions: []models.Suggestion{}})
	}

	result, genErr := c.GetGenerator().Generate(cmd.Context(), req)
	if err := root.PrintJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	return genErr
}

// BuildRequest collects the ids to classify: the explicit ids, plus the
// pending ones when requested.
func BuildRequest(ctx context.Context, lister PendingLister, orgID string, ids []string, withPending bool, maxPending int) (models.BatchRequest, error) {
	req := models.BatchRequest{OrganizationID: orgID, TransactionIDs: append([]string(nil), ids...)}
	if !withPending {
		if len(ids) == 0 {
			return req, fmt.Errorf("transaction ids or --pending required")
		}
		return req, nil
	}

	pendingIDs, err := lister.PendingTransactionIDs(ctx, orgID, maxPending)
	if err != nil {
		return req, err
	}
	seen := make(map[string]bool, len(req.TransactionIDs))
	for _, id := range req.TransactionIDs {
		seen[id] = true
	}
	for _, id := range pendingIDs {
		if !seen[id] {
			seen[id] = true
			req.TransactionIDs = append(req.TransactionIDs, id)
		}
	}
	return req, nil
}
