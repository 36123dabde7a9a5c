package instance

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"erpcore/internal/core"
	"erpcore/internal/snapshot"
)

// OpenFile loads an instance from a main snapshot file on disk. The secrets
// snapshot next to it is merged when present.
func OpenFile(path string, logger core.Logger, opts ...core.Option) (*core.Store, snapshot.Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, snapshot.Report{}, err
	}
	if info.IsDir() {
		return nil, snapshot.Report{}, fmt.Errorf("open %s: %w", path, ErrIsDirectory)
	}
	base, ok := strings.CutSuffix(path, snapshot.Extension)
	if !ok {
		return nil, snapshot.Report{}, fmt.Errorf("open %s: %w", path, ErrWrongExtension)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, snapshot.Report{}, err
	}
	st, report, err := snapshot.Load(data, logger)
	if err != nil {
		return nil, snapshot.Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	store := core.NewStoreFromState(st, opts...)

	secretsPath := base + snapshot.SecretsExtension
	secrets, err := os.ReadFile(secretsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, snapshot.Report{}, err
	default:
		doc, err := snapshot.ParseSecrets(secrets)
		if err != nil {
			return nil, snapshot.Report{}, fmt.Errorf("open %s: %w", secretsPath, err)
		}
		snapshot.MergeSecrets(store, doc)
	}
	return store, report, nil
}
