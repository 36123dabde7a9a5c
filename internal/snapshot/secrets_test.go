package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core"
	"erpcore/pkg/domain"
)

func TestSecretsRoundTrip(t *testing.T) {
	original := buildInstance(t)
	doc := SplitSecrets(original.ExportState())
	assert.Equal(t, SchemaVersion, doc.SchemaVersion)
	assert.Equal(t, "Hardware Shop", doc.Name)
	assert.Equal(t, SecretsWarning, doc.Warning)

	data, err := MarshalSecrets(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DE02120300000000202051")

	parsed, err := ParseSecrets(data)
	require.NoError(t, err)
	target := core.NewStore("Hardware Shop")
	MergeSecrets(target, parsed)

	company, ok := target.Company()
	require.True(t, ok)
	want, _ := original.Company()
	assert.Equal(t, want, company)
}

func TestSecretsWithoutCompany(t *testing.T) {
	doc := SplitSecrets(core.NewStore("Empty").ExportState())
	assert.Nil(t, doc.Company)

	data, err := MarshalSecrets(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"company"`)

	s := core.NewStore("Empty")
	s.SetCompany(&domain.Company{Name: "stale"})
	MergeSecrets(s, doc)
	_, ok := s.Company()
	assert.False(t, ok)
}

func TestSecretsMissingFieldsBecomeEmpty(t *testing.T) {
	doc, err := ParseSecrets([]byte(`{"schema_version": 2, "name": "Shop", "company": {"name": "Shop Ltd", "bank": {"iban": "NL91ABNA0417164300"}}}`))
	require.NoError(t, err)

	s := core.NewStore("Shop")
	MergeSecrets(s, doc)
	company, ok := s.Company()
	require.True(t, ok)
	assert.Equal(t, domain.Company{
		Name: "Shop Ltd",
		Bank: domain.BankInfo{IBAN: "NL91ABNA0417164300"},
	}, company)
}

func TestParseSecretsRejectsMalformedInput(t *testing.T) {
	_, err := ParseSecrets(nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	_, err = ParseSecrets([]byte(`{"company": "x"}`))
	require.Error(t, err)
}
