// Package dedup decides whether an incoming event is already in the ledger.
//
// The checks here are an optimistic pre-filter. The ledger's uniqueness
// constraints on (organization, external id) and (organization, canonical
// hash) remain the source of truth; a race that slips past the gate is
// caught at insert time and reported with the same reasons.
package dedup

import (
	"context"
	"errors"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
)

// Kind is the outcome of a dedup check.
type Kind string

const (
	New           Kind = "new"
	DuplicateID   Kind = "duplicate_id"
	DuplicateHash Kind = "duplicate_hash"
)

// Outcome is the result of Check. ExistingID is set for duplicates.
type Outcome struct {
	Kind       Kind
	ExistingID string
}

// IsDuplicate reports whether the event is already stored.
func (o Outcome) IsDuplicate() bool {
	return o.Kind != New
}

// Err returns the outcome as *ingesterror.DuplicateError, or nil for New.
func (o Outcome) Err() error {
	switch o.Kind {
	case DuplicateID:
		return &ingesterror.DuplicateError{Key: ingesterror.KeyExternalID, ExistingID: o.ExistingID}
	case DuplicateHash:
		return &ingesterror.DuplicateError{Key: ingesterror.KeyCanonicalHash, ExistingID: o.ExistingID}
	}
	return nil
}

// Lookup is the ledger query surface the gate needs.
type Lookup interface {
	TransactionIDByExternalID(ctx context.Context, orgID, externalID string) (string, error)
	TransactionIDByHash(ctx context.Context, orgID, hash string) (string, error)
}

// Gate runs the pre-insert duplicate checks.
type Gate struct {
	lookup Lookup
	logger logging.Logger
}

// NewGate creates a Gate.
func NewGate(lookup Lookup, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Gate{lookup: lookup, logger: logger.WithField(logging.FieldComponent, "dedup")}
}

// Check looks the event up by external id (when present), then by hash.
// The hash must already include the resolved local account id.
func (g *Gate) Check(ctx context.Context, orgID, externalID, hash string) (Outcome, error) {
	if externalID != "" {
		id, err := g.lookup.TransactionIDByExternalID(ctx, orgID, externalID)
		if err == nil {
			return g.duplicate(orgID, Outcome{Kind: DuplicateID, ExistingID: id}), nil
		}
		if !errors.Is(err, ingesterror.ErrNotFound) {
			return Outcome{}, err
		}
	}

	id, err := g.lookup.TransactionIDByHash(ctx, orgID, hash)
	if err == nil {
		return g.duplicate(orgID, Outcome{Kind: DuplicateHash, ExistingID: id}), nil
	}
	if !errors.Is(err, ingesterror.ErrNotFound) {
		return Outcome{}, err
	}
	return Outcome{Kind: New}, nil
}

func (g *Gate) duplicate(orgID string, o Outcome) Outcome {
	g.logger.Debug("Duplicate detected before insert",
		logging.Field{Key: logging.FieldOrganizationID, Value: orgID},
		logging.Field{Key: logging.FieldReason, Value: string(o.Kind)},
		logging.Field{Key: logging.FieldTransactionID, Value: o.ExistingID})
	return o
}
