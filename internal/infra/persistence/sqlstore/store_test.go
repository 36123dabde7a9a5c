package sqlstore

import (
	"testing"
	"time"
)

func TestLikePrefixEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"":         "%",
		"shop":     "shop%",
		"a_b":      `a\_b%`,
		"100%":     `100\%%`,
		`back\sl`:  `back\\sl%`,
		"shop.erp": "shop.erp%",
	}
	for in, want := range cases {
		if got := LikePrefix(in); got != want {
			t.Fatalf("LikePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetadataEncoding(t *testing.T) {
	if got, err := encodeMetadata(nil); err != nil || got != "{}" {
		t.Fatalf("empty metadata: %q %v", got, err)
	}
	raw, err := encodeMetadata(map[string]string{"instance": "shop"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	info, err := docRow{key: "k", size: 3, metadata: []byte(raw), etag: "e", updatedAt: now.UnixNano()}.info()
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Metadata["instance"] != "shop" || !info.LastModified.Equal(now) || info.Size != 3 {
		t.Fatalf("unexpected info %+v", info)
	}
	empty, err := docRow{key: "k", metadata: []byte("{}")}.info()
	if err != nil || empty.Metadata != nil {
		t.Fatalf("expected nil metadata, got %+v %v", empty, err)
	}
	if _, err := (docRow{key: "k", metadata: []byte("[")}).info(); err == nil {
		t.Fatalf("expected decode error")
	}
}
