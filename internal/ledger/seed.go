package ledger

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// Seed is the YAML document loaded by the seed command. OrganizationID is
// applied to every account and mapping that leaves it empty; categories,
// cost centers and rules without one are global.
type Seed struct {
	OrganizationID  string                  `yaml:"organization_id"`
	Accounts        []SeedAccount           `yaml:"accounts"`
	AccountMappings []models.AccountMapping `yaml:"account_mappings"`
	Categories      []models.Category       `yaml:"categories"`
	CostCenters     []models.CostCenter     `yaml:"cost_centers"`
	Rules           []models.Rule           `yaml:"rules"`
}

// SeedAccount is an account entry. Accounts are active unless stated otherwise.
type SeedAccount struct {
	ID             string `yaml:"id"`
	OrganizationID string `yaml:"organization_id"`
	Name           string `yaml:"name"`
	Active         *bool  `yaml:"active"`
	Default        bool   `yaml:"default"`
}

// LoadSeedFile parses a seed document.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing seed file %s: %w", path, err)
	}
	return &seed, nil
}

// ApplySeed upserts every record of the seed and returns how many were written.
func (s *Store) ApplySeed(ctx context.Context, seed *Seed) (int, error) {
	written := 0
	org := seed.OrganizationID

	for _, entry := range seed.Accounts {
		a := models.Account{
			ID:             entry.ID,
			OrganizationID: entry.OrganizationID,
			Name:           entry.Name,
			Active:         entry.Active == nil || *entry.Active,
			Default:        entry.Default,
		}
		if a.OrganizationID == "" {
			a.OrganizationID = org
		}
		if err := s.UpsertAccount(ctx, &a); err != nil {
			return written, fmt.Errorf("account %s: %w", a.ID, err)
		}
		written++
	}
	for i := range seed.AccountMappings {
		m := seed.AccountMappings[i]
		if m.OrganizationID == "" {
			m.OrganizationID = org
		}
		if err := s.UpsertAccountMapping(ctx, &m); err != nil {
			return written, fmt.Errorf("account mapping %s: %w", m.ExternalRef, err)
		}
		written++
	}
	for i := range seed.Categories {
		c := seed.Categories[i]
		if err := s.UpsertCategory(ctx, &c); err != nil {
			return written, fmt.Errorf("category %s: %w", c.ID, err)
		}
		written++
	}
	for i := range seed.CostCenters {
		c := seed.CostCenters[i]
		if err := s.UpsertCostCenter(ctx, &c); err != nil {
			return written, fmt.Errorf("cost center %s: %w", c.ID, err)
		}
		written++
	}
	for i := range seed.Rules {
		r := seed.Rules[i]
		if !r.Type.Valid() {
			return written, fmt.Errorf("rule %s: invalid type %q", r.ID, r.Type)
		}
		if err := s.UpsertRule(ctx, &r); err != nil {
			return written, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		written++
	}

	s.logger.Info("Seed applied",
		logging.Field{Key: logging.FieldOrganizationID, Value: org},
		logging.Field{Key: logging.FieldCount, Value: written})
	return written, nil
}
