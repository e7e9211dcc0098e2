package trie

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"triefile/internal/format"
)

// serializeToFile builds a trie from pairs and returns the path it was
// written to.
func serializeToFile(t *testing.T, withContent bool, pairs [][2]string) string {
	t.Helper()

	b := NewBuilder(withContent, false, nil)
	for _, p := range pairs {
		if err := b.Insert([]byte(p[0]), []byte(p[1])); err != nil {
			t.Fatalf("insert %q: %v", p[0], err)
		}
	}
	path := filepath.Join(t.TempDir(), "index.trie")
	if err := b.Serialize(path); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return path
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.trie"), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestOpenRejectsBadVersion(t *testing.T) {
	path := serializeToFile(t, true, [][2]string{{"k", "v"}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	raw[0] = format.Version + 1
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err = Open(path, nil)
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}
}

func TestOpenRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.trie")
	if err := os.WriteFile(path, []byte{format.Version, 0, 0}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := Open(path, nil)
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := serializeToFile(t, true, [][2]string{{"key", "value"}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if err := os.WriteFile(path, raw[:len(raw)-4], 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err = Open(path, nil)
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
}

func TestOpenRejectsInconsistentCounters(t *testing.T) {
	path := serializeToFile(t, true, [][2]string{{"key", "value"}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	header, err := format.DecodeHeader(raw)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	header.NodesUsed += 3
	header.EncodeInto(raw)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err = Open(path, nil)
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
}

func TestOpenRejectsBadFlagByte(t *testing.T) {
	path := serializeToFile(t, true, [][2]string{{"k", "v"}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	raw[2] = 7
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err = Open(path, nil)
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
}

func TestMembershipLookup(t *testing.T) {
	r := buildAndOpen(t, false, false, [][2]string{
		{"alice", ""},
		{"bob", ""},
	})

	for _, key := range []string{"alice", "bob"} {
		value, ok := r.Lookup([]byte(key))
		if !ok {
			t.Fatalf("%q should be present", key)
		}
		if &value[0] != &Found[0] {
			t.Errorf("%q: membership lookup should return the shared Found slice", key)
		}
		if string(value) != "Found" {
			t.Errorf("%q: want %q, got %q", key, "Found", value)
		}
	}

	if _, ok := r.Lookup([]byte("carol")); ok {
		t.Fatal("carol should be absent")
	}
}

func TestEmptyTrieLookups(t *testing.T) {
	for _, withContent := range []bool{true, false} {
		path := serializeToFile(t, withContent, nil)
		r, err := Open(path, nil)
		if err != nil {
			t.Fatalf("withContent=%v: open: %v", withContent, err)
		}
		for _, key := range []string{"", "a", "anything"} {
			if _, ok := r.Lookup([]byte(key)); ok {
				t.Errorf("withContent=%v: %q should be absent in an empty trie", withContent, key)
			}
		}
		r.Close()
	}
}

func TestLookupInteriorNodeIsAbsent(t *testing.T) {
	r := buildAndOpen(t, true, false, [][2]string{{"abc", "v"}})

	// "ab" exists as an interior node but was never inserted.
	if _, ok := r.Lookup([]byte("ab")); ok {
		t.Fatal("interior node should not report a value")
	}
}

func TestCloseIdempotent(t *testing.T) {
	path := serializeToFile(t, true, [][2]string{{"k", "v"}})
	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestConcurrentLookups(t *testing.T) {
	pairs := [][2]string{
		{"foo", "1"}, {"bar", "2"}, {"baz", "3"}, {"quux", "4"},
	}
	r := buildAndOpen(t, true, false, pairs)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				p := pairs[i%len(pairs)]
				value, ok := r.Lookup([]byte(p[0]))
				if !ok || string(value) != p[1] {
					t.Errorf("%q: want %q, got %q (present=%v)", p[0], p[1], value, ok)
					return
				}
				if _, ok := r.Lookup([]byte("missing")); ok {
					t.Error("missing key reported present")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestReaderFlags(t *testing.T) {
	r := buildAndOpen(t, true, true, [][2]string{{"k", "v"}})
	if !r.WithContent() || !r.UseCompress() {
		t.Fatalf("flags lost in round trip: withContent=%v useCompress=%v", r.WithContent(), r.UseCompress())
	}

	m := buildAndOpen(t, false, false, [][2]string{{"k", ""}})
	if m.WithContent() || m.UseCompress() {
		t.Fatalf("membership flags wrong: withContent=%v useCompress=%v", m.WithContent(), m.UseCompress())
	}
}
