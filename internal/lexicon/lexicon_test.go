package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/txledger/internal/logging"
)

func TestDefault(t *testing.T) {
	lex, err := Default()
	require.NoError(t, err)

	assert.Contains(t, lex.Stopwords, "pix")
	assert.Contains(t, lex.Stopwords, "payment")
	assert.NotContains(t, lex.Stopwords, "pagamento", "bill phrases rely on it")
	assert.Contains(t, lex.InvoicePhrases, "pagamento fatura")

	for _, field := range []string{FieldDate, FieldDescription, FieldAmount, FieldExternalID, FieldIndicator, FieldAccount} {
		assert.NotEmpty(t, lex.FieldAliases[field], "aliases for %s", field)
	}
}

func TestLoad_EmptyFilenameReturnsDefaults(t *testing.T) {
	lex, err := Load("", nil)
	require.NoError(t, err)

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def, lex)
}

func TestLoad_OverridesOnlyDefinedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
invoice_phrases:
  - settle statement
field_aliases:
  amount:
    - montante
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	logger := logging.NewMockLogger()
	lex, err := Load(path, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"settle statement"}, lex.InvoicePhrases)
	assert.Equal(t, []string{"montante"}, lex.FieldAliases[FieldAmount])
	assert.Contains(t, lex.Stopwords, "pix", "stopwords keep their defaults")
	assert.NotEmpty(t, lex.FieldAliases[FieldDate])
	assert.True(t, logger.HasEntry("DEBUG", "Loaded lexicon overrides"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("stopwords: [unterminated"), 0o600))
	_, err = Load(bad, nil)
	assert.Error(t, err)
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.Mkdir("config", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("config", "lexicon.yaml"), []byte("{}"), 0o600))

	path, err := FindFile("lexicon.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("config", "lexicon.yaml"), path)

	_, err = FindFile("nowhere.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
