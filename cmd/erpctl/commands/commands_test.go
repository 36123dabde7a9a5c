package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct {
	code   int
	stdout string
	stderr string
}

func erpctl(t *testing.T, args ...string) run {
	t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{"--env-file", filepath.Join(t.TempDir(), "none.env")}
	code := Execute(append(base, args...), &stdout, &stderr)
	return run{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestInitListShowDelete(t *testing.T) {
	dir := t.TempDir()
	fs := []string{"--driver", "fs", "--data-dir", dir}

	res := erpctl(t, append(fs, "init", "Hardware Shop", "--own-capital", "15000.50")...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "hardware-shop.erp.json")
	assert.FileExists(t, filepath.Join(dir, "hardware-shop.erp.json"))
	assert.FileExists(t, filepath.Join(dir, "hardware-shop.secrets.json"))

	res = erpctl(t, append(fs, "init", "Hardware Shop")...)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = erpctl(t, append(fs, "--json", "list")...)
	require.Equal(t, 0, res.code, res.stderr)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "hardware-shop", list[0]["Name"])

	res = erpctl(t, append(fs, "show", "hardware shop")...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Hardware Shop")
	assert.Contains(t, res.stdout, "own capital 15000.50")

	res = erpctl(t, append(fs, "delete", "Hardware Shop")...)
	require.Equal(t, 0, res.code, res.stderr)
	res = erpctl(t, append(fs, "show", "Hardware Shop")...)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not found")

	res = erpctl(t, append(fs, "list")...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "no instances")
}

func TestCopyToSQLite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(t.TempDir(), "erp.db")
	fs := []string{"--driver", "fs", "--data-dir", dir}
	require.Equal(t, 0, erpctl(t, append(fs, "init", "Shop")...).code)

	res := erpctl(t, append(fs, "copy", "Shop", "--to", "sqlite", "--to-sqlite-path", db)...)
	require.Equal(t, 0, res.code, res.stderr)

	res = erpctl(t, "--driver", "sqlite", "--sqlite-path", db, "show", "Shop")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Shop")

	res = erpctl(t, append(fs, "copy", "Shop", "--to", "tape")...)
	assert.Equal(t, 1, res.code)
	res = erpctl(t, append(fs, "copy", "Missing", "--to", "memory")...)
	assert.Equal(t, 1, res.code)
}

func TestCheckReportsRepairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dangling.erp.json")
	doc := `{"schema_version":2,"name":"Dangling","article_types":[{"id":1,"name":"Screws"}],
		"articles":[{"id":1,"scanner_id":100000,"type_id":9,"stock":3}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	res := erpctl(t, "check", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "unknown_reference")

	res = erpctl(t, "check", "--strict", path)
	assert.Equal(t, 1, res.code)

	res = erpctl(t, "check", dir)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "directory")
}

func TestSchemaPrintsJSONSchema(t *testing.T) {
	res := erpctl(t, "schema")
	require.Equal(t, 0, res.code, res.stderr)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &schema))
	assert.Equal(t, "erpcore instance snapshot", schema["title"])
}

func TestInvalidDriverFails(t *testing.T) {
	res := erpctl(t, "--driver", "tape", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown storage driver")
}
