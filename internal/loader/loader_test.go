package loader

import (
	"path/filepath"
	"strings"
	"testing"

	"triefile/internal/trie"
)

// roundTrip loads input into a fresh builder and reopens the serialized file.
func roundTrip(t *testing.T, input string, withContent bool, cfg Config) (*trie.Reader, uint64) {
	t.Helper()

	b := trie.NewBuilder(withContent, false, nil)
	count, err := Load(strings.NewReader(input), b, cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.trie")
	if err := b.Serialize(path); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	r, err := trie.Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, count
}

func TestLoadBasicRecords(t *testing.T) {
	input := "foo:1\nfoo:2\nbar:x\n"
	r, count := roundTrip(t, input, true, Config{})

	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
	if value, ok := r.Lookup([]byte("foo")); !ok || string(value) != "1\n2" {
		t.Fatalf("foo: want %q, got %q (present=%v)", "1\n2", value, ok)
	}
	if value, ok := r.Lookup([]byte("bar")); !ok || string(value) != "x" {
		t.Fatalf("bar: want %q, got %q (present=%v)", "x", value, ok)
	}
}

func TestLoadSkipsShortLines(t *testing.T) {
	input := "\na\nkey:value\n:\n"
	r, count := roundTrip(t, input, true, Config{})

	// Only "key:value" survives; empty and single-byte lines are skipped.
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
	if _, ok := r.Lookup([]byte("a")); ok {
		t.Fatal("single-byte line should have been skipped")
	}
	if value, ok := r.Lookup([]byte("key")); !ok || string(value) != "value" {
		t.Fatalf("key: want %q, got %q (present=%v)", "value", value, ok)
	}
}

func TestLoadSkipsDelimiterlessRecords(t *testing.T) {
	input := "nodatahere\nkey:value\n"
	r, count := roundTrip(t, input, true, Config{})

	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
	if _, ok := r.Lookup([]byte("nodatahere")); ok {
		t.Fatal("record without delimiter should have been skipped")
	}
}

func TestLoadMembershipToleratesMissingValue(t *testing.T) {
	input := "alice\nbob:\ncarol:ignored\n"
	r, count := roundTrip(t, input, false, Config{})

	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
	for _, key := range []string{"alice", "bob", "carol"} {
		if _, ok := r.Lookup([]byte(key)); !ok {
			t.Errorf("%q should be present", key)
		}
	}
	if _, ok := r.Lookup([]byte("dave")); ok {
		t.Fatal("dave should be absent")
	}
}

func TestLoadDelimiterOverride(t *testing.T) {
	input := "key=with:colon\n"
	r, _ := roundTrip(t, input, true, Config{Delimiter: '='})

	if value, ok := r.Lookup([]byte("key")); !ok || string(value) != "with:colon" {
		t.Fatalf("key: want %q, got %q (present=%v)", "with:colon", value, ok)
	}
}

func TestLoadValueExtendsToEndOfLine(t *testing.T) {
	input := "key:a:b:c\n"
	r, _ := roundTrip(t, input, true, Config{})

	if value, ok := r.Lookup([]byte("key")); !ok || string(value) != "a:b:c" {
		t.Fatalf("key: want %q, got %q (present=%v)", "a:b:c", value, ok)
	}
}

func TestLoadProgressCadence(t *testing.T) {
	var lines strings.Builder
	for i := 0; i < 2500; i++ {
		lines.WriteString("key")
		lines.WriteByte(byte('a' + i%26))
		lines.WriteString(":v\n")
	}

	var reports []uint64
	b := trie.NewBuilder(true, false, nil)
	count, err := Load(strings.NewReader(lines.String()), b, Config{
		Progress: func(inserted uint64) { reports = append(reports, inserted) },
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if count != 2500 {
		t.Fatalf("expected 2500 records, got %d", count)
	}
	if len(reports) != 2 || reports[0] != 1000 || reports[1] != 2000 {
		t.Fatalf("expected progress at 1000 and 2000, got %v", reports)
	}
}

func TestLoadNoFinalNewline(t *testing.T) {
	r, count := roundTrip(t, "key:value", true, Config{})

	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
	if value, ok := r.Lookup([]byte("key")); !ok || string(value) != "value" {
		t.Fatalf("key: want %q, got %q (present=%v)", "value", value, ok)
	}
}
