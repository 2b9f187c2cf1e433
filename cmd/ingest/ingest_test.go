package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEvent_FromFlags(t *testing.T) {
	ev, err := BuildEvent(Flags{
		ExternalID:  "ext-1",
		Amount:      "-45.90",
		Description: "POSTO IPIRANGA",
		Date:        "2024-03-15",
		AccountRef:  "bank-main",
		Indicator:   "DBIT",
	}, "org-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "ext-1", ev.ExternalID)
	assert.True(t, ev.Amount.Equal(decimal.RequireFromString("-45.90")))
	assert.Equal(t, "POSTO IPIRANGA", ev.Description)
	assert.Equal(t, "bank-main", ev.AccountRef)
	assert.Equal(t, "DBIT", ev.CreditDebitIndicator)
	assert.Equal(t, "org-1", ev.OrganizationID)
}

func TestBuildEvent_InvalidAmount(t *testing.T) {
	_, err := BuildEvent(Flags{Amount: "abc", Description: "x", Date: "2024-03-15"}, "org-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--amount")
}

func TestBuildEvent_FromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	doc := `{"externalId":"ext-9","amount":"12.00","description":"PIX","date":"2024-03-15","accountRef":"r","organizationId":"org-json"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tests := []struct {
		name    string
		org     string
		wantOrg string
	}{
		{name: "organization from document", org: "", wantOrg: "org-json"},
		{name: "flag overrides document", org: "org-flag", wantOrg: "org-flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := BuildEvent(Flags{JSONFile: path}, tt.org, nil)
			require.NoError(t, err)
			assert.Equal(t, "ext-9", ev.ExternalID)
			assert.Equal(t, tt.wantOrg, ev.OrganizationID)
		})
	}
}

func TestBuildEvent_FromStdin(t *testing.T) {
	stdin := strings.NewReader(`{"amount":"-3.5","description":"CAFE","date":"2024-01-02"}`)

	ev, err := BuildEvent(Flags{JSONFile: "-"}, "org-1", stdin)
	require.NoError(t, err)
	assert.Equal(t, "CAFE", ev.Description)
	assert.Equal(t, "org-1", ev.OrganizationID)
}

func TestBuildEvent_BadJSON(t *testing.T) {
	_, err := BuildEvent(Flags{JSONFile: "-"}, "", strings.NewReader("{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing event JSON")
}
