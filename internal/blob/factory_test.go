package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []struct {
		name string
		opts Options
		want Driver
	}{
		{name: "default", opts: Options{FSRoot: filepath.Join(dir, "fs")}, want: DriverFilesystem},
		{name: "memory", opts: Options{Driver: DriverMemory}, want: DriverMemory},
		{name: "sqlite", opts: Options{Driver: DriverSQLite, SQLitePath: filepath.Join(dir, "erp.db")}, want: DriverSQLite},
		{name: "s3", opts: Options{Driver: DriverS3, S3: S3Config{Bucket: "erp", Region: "eu-central-1", AccessKeyID: "AKIA", SecretAccessKey: "SECRET"}}, want: DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.opts)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			t.Cleanup(func() { _ = Close(store) })
			if store.Driver() != tc.want {
				t.Fatalf("driver = %s, want %s", store.Driver(), tc.want)
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if ValidDriver("tape") || !ValidDriver(DriverPostgres) {
		t.Fatalf("unexpected ValidDriver result")
	}
}

// Every backend must honour the same contract.
func TestBackendsShareContract(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	sqliteStore, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "erp.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { _ = Close(sqliteStore) })
	for _, store := range []Store{fsStore, NewMemory(), NewMockS3ForTests(), sqliteStore} {
		t.Run(string(store.Driver()), func(t *testing.T) {
			exerciseContract(t, store)
		})
	}
}

func exerciseContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Put(ctx, "shop.erp.json", bytes.NewReader([]byte("v1")), PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "shop.erp.json", bytes.NewReader([]byte("v2")), PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := store.Put(ctx, "bakery.erp.json", bytes.NewReader([]byte("b")), PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	_, rc, err := store.Get(ctx, "shop.erp.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "v2" {
		t.Fatalf("expected replaced content, got %q", body)
	}
	list, err := store.List(ctx, "")
	if err != nil || len(list) != 2 || list[0].Key != "bakery.erp.json" || list[1].Key != "shop.erp.json" {
		t.Fatalf("list: %v %+v", err, list)
	}
	if ok, err := store.Delete(ctx, "bakery.erp.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "bakery.erp.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := store.Delete(ctx, "bakery.erp.json"); err != nil || ok {
		t.Fatalf("delete missing: %v %v", ok, err)
	}
}
