package importcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/importer"
	"fjacquet/txledger/internal/ingest"
	"fjacquet/txledger/internal/ledger"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

const statement = `Data;Histórico;Valor;ID;Conta
15/03/2024;PIX POSTO IPIRANGA 0423;-45,90;bank-001;bank-main-01
16/03/2024;Salário Março;5.300,00;bank-002;bank-main-01
`

func setup(t *testing.T) (*ledger.Store, *ingest.Engine, *lexicon.Lexicon) {
	t.Helper()
	ctx := context.Background()
	store, err := ledger.OpenMemory(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.UpsertAccount(ctx, &models.Account{ID: "acc-1", OrganizationID: "org-1", Name: "Main", Active: true, Default: true}))

	lex, err := lexicon.Default()
	require.NoError(t, err)
	return store, ingest.NewEngine(store, lex, config.DefaultClassification(), nil), lex
}

func TestOptions(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: 0},
		{in: ";", want: ';'},
		{in: "\t", want: '\t'},
		{in: ";;", wantErr: true},
	}
	for _, tt := range tests {
		opts, err := Options(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, opts.CSVDelimiter)
	}
}

func TestImport_OverlappingExports(t *testing.T) {
	store, engine, lex := setup(t)
	ctx := context.Background()
	dir := t.TempDir()
	first := filepath.Join(dir, "march.csv")
	second := filepath.Join(dir, "march-again.csv")
	require.NoError(t, os.WriteFile(first, []byte(statement), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(statement), 0o600))

	logger := logging.NewMockLogger()
	stats, err := Import(ctx, engine, lex, []string{first, second}, "org-1", importer.Options{}, logger)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 2, stats.Skipped)
	assert.True(t, logger.HasEntry("INFO", "Ingest summary"))

	count, err := store.CountTransactions(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImport_UnreadableFile(t *testing.T) {
	_, engine, lex := setup(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(good, []byte(statement), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("<html></html>"), 0o600))

	logger := logging.NewMockLogger()
	stats, err := Import(context.Background(), engine, lex, []string{bad, good}, "org-1", importer.Options{}, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.True(t, logger.HasEntry("ERROR", "Failed to read import file"))

	_, err = Import(context.Background(), engine, lex, []string{bad}, "org-1", importer.Options{}, logger)
	assert.Error(t, err)
}
