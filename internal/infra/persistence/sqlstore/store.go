// Package sqlstore implements the document store contract over a
// database/sql handle. Dialect-specific SQL is supplied by the sqlite and
// postgres packages.
package sqlstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"erpcore/internal/blob/core"
)

// Dialect holds the statements a backend runs. Every statement takes its
// arguments in the column order of the documents table:
// key, payload, size, content_type, metadata, etag, updated_at.
type Dialect struct {
	Driver core.Driver
	Schema []string
	// Upsert inserts or replaces a document (7 args).
	Upsert string
	// Select reads one document by key, all columns.
	Select string
	// Head reads one document by key, without payload.
	Head string
	// Delete removes one document by key.
	Delete string
	// List reads documents whose key matches a LIKE pattern, without payload,
	// ordered by key.
	List string
}

// Store persists documents in a single table.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New applies the dialect schema and returns a store over db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure documents table: %w", err)
		}
	}
	return &Store{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() core.Driver { return s.dialect.Driver }

// Put upserts the document inside a transaction.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (info core.Info, retErr error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	metadata, err := encodeMetadata(opts.Metadata)
	if err != nil {
		return core.Info{}, err
	}
	sum := sha256.Sum256(payload)
	info = core.Info{
		Key:          key,
		Size:         int64(len(payload)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: s.now(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Info{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, s.dialect.Upsert,
		key, payload, info.Size, info.ContentType, metadata, info.ETag, info.LastModified.UnixNano()); err != nil {
		return core.Info{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Info{}, fmt.Errorf("commit: %w", err)
	}
	return info, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Select, key)
	if err != nil {
		return core.Info{}, nil, fmt.Errorf("select %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Info{}, nil, err
		}
		return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	var payload []byte
	var row docRow
	if err := rows.Scan(&row.key, &payload, &row.size, &row.contentType, &row.metadata, &row.etag, &row.updatedAt); err != nil {
		return core.Info{}, nil, fmt.Errorf("scan %s: %w", key, err)
	}
	info, err := row.info()
	if err != nil {
		return core.Info{}, nil, err
	}
	return info, io.NopCloser(bytes.NewReader(payload)), nil
}

func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	infos, err := s.query(ctx, s.dialect.Head, key)
	if err != nil {
		return core.Info{}, err
	}
	if len(infos) == 0 {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return infos[0], nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.Delete, key)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	return s.query(ctx, s.dialect.List, LikePrefix(prefix))
}

func (s *Store) query(ctx context.Context, stmt string, arg any) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx, stmt, arg)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var infos []core.Info
	for rows.Next() {
		var row docRow
		if err := rows.Scan(&row.key, &row.size, &row.contentType, &row.metadata, &row.etag, &row.updatedAt); err != nil {
			return nil, fmt.Errorf("scan documents: %w", err)
		}
		info, err := row.info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return infos, nil
}

type docRow struct {
	key         string
	size        int64
	contentType string
	metadata    []byte
	etag        string
	updatedAt   int64
}

func (r docRow) info() (core.Info, error) {
	var md map[string]string
	if len(r.metadata) > 0 {
		if err := json.Unmarshal(r.metadata, &md); err != nil {
			return core.Info{}, fmt.Errorf("decode metadata of %s: %w", r.key, err)
		}
	}
	if len(md) == 0 {
		md = nil
	}
	return core.Info{
		Key:          r.key,
		Size:         r.size,
		ContentType:  r.contentType,
		ETag:         r.etag,
		Metadata:     md,
		LastModified: time.Unix(0, r.updatedAt).UTC(),
	}, nil
}

func encodeMetadata(md map[string]string) (string, error) {
	if len(md) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// LikePrefix turns a key prefix into a LIKE pattern with '\' as escape
// character.
func LikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
