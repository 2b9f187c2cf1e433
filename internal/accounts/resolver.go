// Package accounts maps upstream account references to local ledger accounts.
package accounts

import (
	"context"
	"errors"
	"strings"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
)

// Directory is the account lookup the resolver needs from the ledger.
type Directory interface {
	AccountIDByMapping(ctx context.Context, orgID, externalRef string) (string, error)
	DefaultAccountID(ctx context.Context, orgID string) (string, error)
}

// Resolver resolves external account references.
type Resolver struct {
	dir    Directory
	logger logging.Logger
}

// NewResolver creates a Resolver over dir.
func NewResolver(dir Directory, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{dir: dir, logger: logger.WithField(logging.FieldComponent, "accounts")}
}

// Resolve returns the local account for externalRef: the established
// mapping if one exists, otherwise the organization's default account.
// It fails with *ingesterror.AccountResolutionError when the organization
// has no active account at all.
func (r *Resolver) Resolve(ctx context.Context, orgID, externalRef string) (string, error) {
	ref := strings.TrimSpace(externalRef)
	if ref != "" {
		id, err := r.dir.AccountIDByMapping(ctx, orgID, ref)
		switch {
		case err == nil:
			return id, nil
		case !errors.Is(err, ingesterror.ErrNotFound):
			return "", err
		}
	}

	id, err := r.dir.DefaultAccountID(ctx, orgID)
	if errors.Is(err, ingesterror.ErrNotFound) {
		r.logger.Warn("No active account for organization",
			logging.Field{Key: logging.FieldOrganizationID, Value: orgID},
			logging.Field{Key: logging.FieldAccountRef, Value: ref})
		return "", &ingesterror.AccountResolutionError{OrganizationID: orgID, AccountRef: ref}
	}
	if err != nil {
		return "", err
	}

	r.logger.Debug("Account reference not mapped, using default account",
		logging.Field{Key: logging.FieldOrganizationID, Value: orgID},
		logging.Field{Key: logging.FieldAccountRef, Value: ref},
		logging.Field{Key: logging.FieldAccountID, Value: id})
	return id, nil
}
