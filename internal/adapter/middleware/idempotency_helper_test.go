package middleware

import (
	"strings"
	"testing"
	"time"
)

func TestParseAxRequestAt(t *testing.T) {
	// epoch seconds
	got, err := parseAxRequestAt("1736123456")
	if err != nil {
		t.Fatalf("epoch seconds: %v", err)
	}
	if got.Unix() != 1736123456 {
		t.Fatalf("epoch seconds = %v", got)
	}

	// epoch milliseconds
	got, err = parseAxRequestAt("1736123456789")
	if err != nil {
		t.Fatalf("epoch ms: %v", err)
	}
	if got.UnixMilli() != 1736123456789 {
		t.Fatalf("epoch ms = %v", got)
	}

	// RFC3339 with zone
	got, err = parseAxRequestAt("2025-09-05T10:00:00+07:00")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("not normalized to UTC: %v", got)
	}

	// rejected inputs
	for _, raw := range []string{"", "not-a-time", "2025-09-05 10:00:00", "2025-09-05T10:00:00"} {
		if _, err := parseAxRequestAt(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestValidReqID(t *testing.T) {
	for _, id := range []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",                // 32-hex
		"3F9A6A1B3D544FBE8B3A6B3E8D6B2C88",                // uppercase hex is lowered first
		"9b2d8f0e-5c4a-4b9f-8f63-1a2b3c4d5e6f",            // uuid v4
		"  aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  ",            // trimmed
	} {
		if !validReqID(id) {
			t.Fatalf("expected valid request id %q", id)
		}
	}
	for _, id := range []string{"", "short", strings.Repeat("g", 32), strings.Repeat("a", 33)} {
		if validReqID(id) {
			t.Fatalf("expected invalid request id %q", id)
		}
	}
}

func TestValidAccountID(t *testing.T) {
	for _, id := range []string{"protocol", "acct-borrower", "vault:usd_1", "a"} {
		if !validAccountID(id) {
			t.Fatalf("expected valid account id %q", id)
		}
	}
	for _, id := range []string{"", "-lead", "has space", "a" + strings.Repeat("b", 64)} {
		if validAccountID(id) {
			t.Fatalf("expected invalid account id %q", id)
		}
	}
}

func TestBuildKey(t *testing.T) {
	key := buildKey("POST", "/loans/:loan_id/repay", "acct-borrower", "rid")
	want := "idemp:ax:post:/loans/:loan_id/repay:acct-borrower:rid"
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
}

func TestBodyHashStable(t *testing.T) {
	a := bodyHash([]byte(`{"x":1}`))
	b := bodyHash([]byte(`{"x":1}`))
	c := bodyHash([]byte(`{"x":2}`))
	if a != b {
		t.Fatalf("same body hashed differently")
	}
	if a == c {
		t.Fatalf("different bodies hashed identically")
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}
