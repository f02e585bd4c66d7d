package art

import "testing"

func TestPutGetSingleKey(t *testing.T) {
	tree := NewART()
	key := EncodeUint64(42)

	tree.Put(key, 7)

	got := tree.Get(key)
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected [7], got %v", got)
	}
}

func TestPutGetMissingKey(t *testing.T) {
	tree := NewART()
	tree.Put(EncodeUint64(1), 1)

	if got := tree.Get(EncodeUint64(2)); got != nil {
		t.Fatalf("expected nil for an absent key, got %v", got)
	}
}

// TestInlineLeafPromotesToChain covers the scenario where a key
// accumulates more than one doc id: the first Put stores the doc id
// inlined directly in the handle, and the second Put must promote it to
// an allocated leaf chain without disturbing the first id.
func TestInlineLeafPromotesToChain(t *testing.T) {
	tree := NewART()
	key := EncodeUint64(99)

	tree.Put(key, 1)
	tree.Put(key, 2)
	tree.Put(key, 3)

	got := tree.Get(key)
	if len(got) != 3 {
		t.Fatalf("expected 3 doc ids, got %v", got)
	}

	seen := map[uint64]bool{}
	for _, id := range got {
		seen[id] = true
	}
	for _, want := range []uint64{1, 2, 3} {
		if !seen[want] {
			t.Fatalf("missing doc id %d in %v", want, got)
		}
	}
}

// TestDeepPrefixSplit inserts two keys that share a long common prefix
// and diverge only in their last byte, forcing prefixSplit to fire deep
// into a multi-link prefix chain.
func TestDeepPrefixSplit(t *testing.T) {
	tree := NewART()

	a := ARTKey(append(append([]byte{}, make([]byte, 30)...), 0x01))
	b := ARTKey(append(append([]byte{}, make([]byte, 30)...), 0x02))

	tree.Put(a, 100)
	tree.Put(b, 200)

	gotA := tree.Get(a)
	gotB := tree.Get(b)

	if len(gotA) != 1 || gotA[0] != 100 {
		t.Fatalf("key a: expected [100], got %v", gotA)
	}
	if len(gotB) != 1 || gotB[0] != 200 {
		t.Fatalf("key b: expected [200], got %v", gotB)
	}
}

// TestNodeGrowsToNode48 inserts enough distinct children under one prefix
// to force Node4 -> Node16 -> Node48 growth, then reads every key back.
func TestNodeGrowsToNode48(t *testing.T) {
	tree := NewART()

	const n = 20
	for i := 0; i < n; i++ {
		key := ARTKey{0xAA, byte(i)}
		tree.Put(key, uint64(i))
	}

	for i := 0; i < n; i++ {
		key := ARTKey{0xAA, byte(i)}
		got := tree.Get(key)
		if len(got) != 1 || got[0] != uint64(i) {
			t.Fatalf("key %d: expected [%d], got %v", i, i, got)
		}
	}

	if tree.allocators.LiveCount() == 0 {
		t.Fatalf("expected live allocations after inserting %d keys", n)
	}
}

func TestCountReflectsDocIDCount(t *testing.T) {
	tree := NewART()
	key := EncodeString("hello")

	tree.Put(key, 1)
	tree.Put(key, 2)

	if got := tree.Count(key); got != 2 {
		t.Fatalf("expected Count()=2, got %d", got)
	}
}
