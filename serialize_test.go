package art

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := Opts{Filepath: dir, FileName: "idx"}

	tree, err := Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const n = 500
	for i := 0; i < n; i++ {
		tree.Put(EncodeUint64(uint64(i)), uint64(i)*10)
	}

	if err := tree.Serialize(); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reloaded, err := Deserialize(opts)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	defer reloaded.Close()

	for i := 0; i < n; i++ {
		got := reloaded.Get(EncodeUint64(uint64(i)))
		if len(got) != 1 || got[0] != uint64(i)*10 {
			t.Fatalf("key %d: expected [%d], got %v", i, i*10, got)
		}
	}
}

func TestHybridPersistenceReopenAndInsertMore(t *testing.T) {
	dir := t.TempDir()
	opts := Opts{Filepath: dir, FileName: "idx2"}

	tree, err := Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 0; i < 50; i++ {
		tree.Put(EncodeUint64(uint64(i)), uint64(i))
	}
	if err := tree.Serialize(); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Deserialize(opts)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	defer reopened.Close()

	for i := 50; i < 100; i++ {
		reopened.Put(EncodeUint64(uint64(i)), uint64(i))
	}

	for i := 0; i < 100; i++ {
		got := reopened.Get(EncodeUint64(uint64(i)))
		if len(got) != 1 || got[0] != uint64(i) {
			t.Fatalf("key %d: expected [%d], got %v", i, i, got)
		}
	}
}

func TestOpenCreatesIndexAndMetaFiles(t *testing.T) {
	dir := t.TempDir()
	opts := Opts{Filepath: dir, FileName: "idx3"}

	tree, err := Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tree.Close()

	if _, err := os.Stat(filepath.Join(dir, "idx3")); err != nil {
		t.Fatalf("expected index file to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "idx3.meta")); err != nil {
		t.Fatalf("expected meta file to exist: %v", err)
	}
}
