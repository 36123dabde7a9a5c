// Package instance saves and opens named instances. Each instance is stored as
// a main snapshot and a secrets snapshot that share the instance's base name.
package instance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"erpcore/internal/blob"
	"erpcore/internal/core"
	"erpcore/internal/snapshot"
)

const contentType = "application/json"

// Repository persists instances in a blob.Store.
type Repository struct {
	store     blob.Store
	logger    core.Logger
	metrics   core.MetricsRecorder
	storeOpts []core.Option
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger for repository operations and reconciliation
// warnings.
func WithLogger(logger core.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetricsRecorder observes every repository operation.
func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(r *Repository) {
		if recorder != nil {
			r.metrics = recorder
		}
	}
}

// WithStoreOptions are applied to every store returned by Open.
func WithStoreOptions(opts ...core.Option) Option {
	return func(r *Repository) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// NewRepository returns a repository over store.
func NewRepository(store blob.Store, opts ...Option) *Repository {
	r := &Repository{store: store, logger: core.NoopLogger(), metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the underlying document store.
func (r *Repository) Backend() blob.Store { return r.store }

// Summary describes one stored instance.
type Summary struct {
	Name         string
	Key          string
	Size         int64
	LastModified time.Time
	HasSecrets   bool
}

func (r *Repository) observe(ctx context.Context, op string, start time.Time, err error) {
	r.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

// Save writes both snapshots of store. The main snapshot is written first; a
// failure while writing the secrets snapshot leaves the main one in place.
func (r *Repository) Save(ctx context.Context, store *core.Store) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "instance.save", start, err) }()

	name := store.Name()
	if BaseName(name) == "" {
		return fmt.Errorf("save %q: %w", name, ErrInvalidName)
	}
	st := store.ExportState()
	main, err := snapshot.Marshal(snapshot.Encode(st))
	if err != nil {
		return err
	}
	secrets, err := snapshot.MarshalSecrets(snapshot.SplitSecrets(st))
	if err != nil {
		return err
	}
	meta := map[string]string{"instance": BaseName(name)}
	if _, err := r.store.Put(ctx, MainKey(name), bytes.NewReader(main), blob.PutOptions{ContentType: contentType, Metadata: meta}); err != nil {
		return fmt.Errorf("save %s: %w", MainKey(name), err)
	}
	if _, err := r.store.Put(ctx, SecretsKey(name), bytes.NewReader(secrets), blob.PutOptions{ContentType: contentType, Metadata: meta}); err != nil {
		return fmt.Errorf("save %s: %w", SecretsKey(name), err)
	}
	r.logger.Info("instance saved", "instance", name, "driver", r.store.Driver(), "bytes", len(main))
	return nil
}

// Open loads the instance called name. Dangling references are repaired and
// reported; only unreadable or unparsable documents fail.
func (r *Repository) Open(ctx context.Context, name string) (_ *core.Store, _ snapshot.Report, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "instance.open", start, err) }()

	data, err := r.read(ctx, MainKey(name))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, snapshot.Report{}, fmt.Errorf("open %q: %w", name, ErrNotFound)
		}
		return nil, snapshot.Report{}, err
	}
	st, report, err := snapshot.Load(data, r.logger)
	if err != nil {
		return nil, snapshot.Report{}, fmt.Errorf("open %s: %w", MainKey(name), err)
	}
	store := core.NewStoreFromState(st, r.storeOpts...)

	secrets, err := r.read(ctx, SecretsKey(name))
	switch {
	case errors.Is(err, blob.ErrNotFound):
		r.logger.Debug("no secrets snapshot", "instance", name)
	case err != nil:
		return nil, snapshot.Report{}, err
	default:
		doc, err := snapshot.ParseSecrets(secrets)
		if err != nil {
			return nil, snapshot.Report{}, fmt.Errorf("open %s: %w", SecretsKey(name), err)
		}
		snapshot.MergeSecrets(store, doc)
	}
	r.logger.Info("instance opened", "instance", st.Name, "driver", r.store.Driver(), "warnings", len(report.Warnings))
	return store, report, nil
}

// Exists reports whether a main snapshot is stored for name.
func (r *Repository) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.store.Head(ctx, MainKey(name))
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns every stored instance ordered by base name.
func (r *Repository) List(ctx context.Context) (_ []Summary, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "instance.list", start, err) }()

	infos, err := r.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	secrets := make(map[string]bool)
	for _, info := range infos {
		if base, ok := strings.CutSuffix(info.Key, snapshot.SecretsExtension); ok {
			secrets[base] = true
		}
	}
	var out []Summary
	for _, info := range infos {
		base, ok := strings.CutSuffix(info.Key, snapshot.Extension)
		if !ok || strings.Contains(base, "/") {
			continue
		}
		out = append(out, Summary{
			Name:         base,
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
			HasSecrets:   secrets[base],
		})
	}
	return out, nil
}

// Delete removes both snapshots of name. It reports whether a main snapshot
// existed.
func (r *Repository) Delete(ctx context.Context, name string) (_ bool, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "instance.delete", start, err) }()

	removed, err := r.store.Delete(ctx, MainKey(name))
	if err != nil {
		return false, err
	}
	if _, err := r.store.Delete(ctx, SecretsKey(name)); err != nil {
		return removed, err
	}
	if removed {
		r.logger.Info("instance deleted", "instance", name)
	}
	return removed, nil
}

// Copy writes the stored documents of name into dst unchanged.
func (r *Repository) Copy(ctx context.Context, name string, dst *Repository) error {
	for _, key := range []string{MainKey(name), SecretsKey(name)} {
		data, err := r.read(ctx, key)
		if errors.Is(err, blob.ErrNotFound) && key == SecretsKey(name) {
			continue
		}
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return fmt.Errorf("copy %q: %w", name, ErrNotFound)
			}
			return err
		}
		if _, err := dst.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: contentType}); err != nil {
			return fmt.Errorf("copy %s: %w", key, err)
		}
	}
	r.logger.Info("instance copied", "instance", name, "from", r.store.Driver(), "to", dst.store.Driver())
	return nil
}

func (r *Repository) read(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
