package instance

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/blob"
	"erpcore/internal/core"
	"erpcore/internal/snapshot"
	"erpcore/pkg/domain"
)

type recordingMetrics struct {
	mu    sync.Mutex
	calls map[string][]bool
}

func (m *recordingMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string][]bool)
	}
	m.calls[op] = append(m.calls[op], success)
}

func newShop(t *testing.T, name string) *core.Store {
	t.Helper()
	store := core.NewStore(name)
	_, err := store.NewArticleType("Screws")
	require.NoError(t, err)
	store.SetCompany(&domain.Company{Name: "ACME Tools", Bank: domain.BankInfo{IBAN: "DE89370400440532013000"}})
	return store
}

func readKey(t *testing.T, store blob.Store, key string) string {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"Hardware Shop":   "hardware-shop",
		`My:Shop/2?`:      "myshop2",
		"tab\there":       "tabhere",
		"  Ünïcode Co  ":  "ünïcode-co",
		`<>:"/\|?*`:       "",
		"already-fine_01": "already-fine_01",
	}
	for in, want := range cases {
		assert.Equal(t, want, BaseName(in), "BaseName(%q)", in)
	}
	assert.Equal(t, "hardware-shop.erp.json", MainKey("Hardware Shop"))
	assert.Equal(t, "hardware-shop.secrets.json", SecretsKey("Hardware Shop"))
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := blob.NewMemory()
	metrics := &recordingMetrics{}
	repo := NewRepository(backend, WithMetricsRecorder(metrics))

	require.NoError(t, repo.Save(ctx, newShop(t, "Hardware Shop")))

	main := readKey(t, backend, "hardware-shop.erp.json")
	assert.NotContains(t, main, "DE89370400440532013000")
	assert.Contains(t, readKey(t, backend, "hardware-shop.secrets.json"), "DE89370400440532013000")

	opened, report, err := repo.Open(ctx, "Hardware Shop")
	require.NoError(t, err)
	assert.True(t, report.Clean(), report.String())
	assert.Equal(t, "Hardware Shop", opened.Name())
	types := opened.ListArticleTypes()
	require.Len(t, types, 1)
	assert.Equal(t, "Screws", types[0].Name)
	company, ok := opened.Company()
	require.True(t, ok)
	assert.Equal(t, "DE89370400440532013000", company.Bank.IBAN)

	assert.Equal(t, []bool{true}, metrics.calls["instance.save"])
	assert.Equal(t, []bool{true}, metrics.calls["instance.open"])
}

func TestOpenWithoutSecretsHasNoCompany(t *testing.T) {
	ctx := context.Background()
	backend := blob.NewMemory()
	repo := NewRepository(backend)
	require.NoError(t, repo.Save(ctx, newShop(t, "Shop")))
	_, err := backend.Delete(ctx, "shop.secrets.json")
	require.NoError(t, err)

	opened, _, err := repo.Open(ctx, "Shop")
	require.NoError(t, err)
	_, ok := opened.Company()
	assert.False(t, ok)
}

func TestOpenMissingInstance(t *testing.T) {
	metrics := &recordingMetrics{}
	repo := NewRepository(blob.NewMemory(), WithMetricsRecorder(metrics))
	_, _, err := repo.Open(context.Background(), "nowhere")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []bool{false}, metrics.calls["instance.open"])
}

func TestOpenUnparsableInstance(t *testing.T) {
	ctx := context.Background()
	backend := blob.NewMemory()
	_, err := backend.Put(ctx, "broken.erp.json", strings.NewReader("{not json"), blob.PutOptions{})
	require.NoError(t, err)
	_, _, err = NewRepository(backend).Open(ctx, "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSaveRejectsEmptyName(t *testing.T) {
	repo := NewRepository(blob.NewMemory())
	err := repo.Save(context.Background(), core.NewStore("???"))
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestListExistsDelete(t *testing.T) {
	ctx := context.Background()
	backend, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	repo := NewRepository(backend)
	require.NoError(t, repo.Save(ctx, newShop(t, "Shop B")))
	require.NoError(t, repo.Save(ctx, newShop(t, "Shop A")))
	_, err = backend.Delete(ctx, "shop-b.secrets.json")
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "shop-a", list[0].Name)
	assert.True(t, list[0].HasSecrets)
	assert.Equal(t, "shop-b", list[1].Name)
	assert.False(t, list[1].HasSecrets)

	exists, err := repo.Exists(ctx, "Shop A")
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err := repo.Delete(ctx, "Shop A")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, "Shop A")
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err = repo.Exists(ctx, "Shop A")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCopyBetweenBackends(t *testing.T) {
	ctx := context.Background()
	src := NewRepository(blob.NewMemory())
	dst := NewRepository(blob.NewMockS3ForTests())
	require.NoError(t, src.Save(ctx, newShop(t, "Shop")))

	require.NoError(t, src.Copy(ctx, "Shop", dst))
	opened, _, err := dst.Open(ctx, "Shop")
	require.NoError(t, err)
	_, ok := opened.Company()
	assert.True(t, ok)

	require.ErrorIs(t, src.Copy(ctx, "missing", dst), ErrNotFound)
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := blob.NewFilesystem(dir)
	require.NoError(t, err)
	require.NoError(t, NewRepository(backend).Save(ctx, newShop(t, "Hardware Shop")))

	store, report, err := OpenFile(filepath.Join(dir, "hardware-shop.erp.json"), nil)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, "Hardware Shop", store.Name())
	company, ok := store.Company()
	require.True(t, ok)
	assert.Equal(t, "ACME Tools", company.Name)

	_, _, err = OpenFile(dir, nil)
	require.ErrorIs(t, err, ErrIsDirectory)

	wrong := filepath.Join(dir, "hardware-shop.json")
	require.NoError(t, os.WriteFile(wrong, []byte("{}"), 0o600))
	_, _, err = OpenFile(wrong, nil)
	require.ErrorIs(t, err, ErrWrongExtension)

	_, _, err = OpenFile(filepath.Join(dir, "missing.erp.json"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hardware-shop.secrets.json"), []byte("[]"), 0o600))
	_, _, err = OpenFile(filepath.Join(dir, "hardware-shop.erp.json"), nil)
	require.Error(t, err)
}

func TestOpenFileReportsRepairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dangling.erp.json")
	doc := `{"schema_version":2,"name":"Dangling","article_types":[{"id":1,"name":"Screws"}],
		"articles":[{"id":1,"scanner_id":100000,"type_id":9,"stock":3}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	store, report, err := OpenFile(path, nil)
	require.NoError(t, err)
	assert.Empty(t, store.ListArticles())
	assert.Len(t, report.ByRule(snapshot.RuleUnknownReference), 1)
}
