package repository

import (
	"testing"
	"time"
)

func TestBucketTruncation(t *testing.T) {
	at := time.Date(2025, 3, 3, 14, 37, 42, 123456789, time.UTC)

	cases := []struct {
		tf   Timeframe
		want time.Time
	}{
		{TF1m, time.Date(2025, 3, 3, 14, 37, 0, 0, time.UTC)},
		{TF5m, time.Date(2025, 3, 3, 14, 35, 0, 0, time.UTC)},
		{TF1h, time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)},
		{TF1d, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := c.tf.Bucket(at); !got.Equal(c.want) {
			t.Fatalf("%s: want %v, got %v", c.tf, c.want, got)
		}
	}
}

func TestBucketNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2025, 3, 3, 19, 37, 0, 0, loc) // 14:37 UTC
	got := TF1m.Bucket(at)
	if got.Location() != time.UTC {
		t.Fatalf("bucket must be UTC, got %v", got.Location())
	}
	if !got.Equal(time.Date(2025, 3, 3, 14, 37, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bucket %v", got)
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	if got := NormalizeTimeframe("5m"); got != TF5m {
		t.Fatalf("want 5m, got %s", got)
	}
	if got := NormalizeTimeframe(""); got != DefaultTimeframe() {
		t.Fatalf("empty must default, got %s", got)
	}
	if got := NormalizeTimeframe("7m"); got != DefaultTimeframe() {
		t.Fatalf("unknown must default, got %s", got)
	}
}

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range All() {
		if !IsValidTimeframe(tf) {
			t.Fatalf("%s should be valid", tf)
		}
	}
	if IsValidTimeframe("1s") {
		t.Fatalf("1s is not supported")
	}
}
