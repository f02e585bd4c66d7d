package art

import "testing"

func TestMergeFoldsSingleThreadedTreeIntoConcurrent(t *testing.T) {
	src := NewART()
	for i := 0; i < 100; i++ {
		src.Put(EncodeUint64(uint64(i)), uint64(i)*2)
	}
	src.Put(EncodeUint64(5), 999) // give key 5 a second doc id

	dst := NewConcurrentART()
	dst.Put(EncodeUint64(1000), 1) // pre-existing entry must survive the merge

	if err := Merge(dst, src); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	for i := 0; i < 100; i++ {
		got := dst.Get(EncodeUint64(uint64(i)))
		if i == 5 {
			if len(got) != 2 {
				t.Fatalf("key 5: expected 2 doc ids after merge, got %v", got)
			}
			continue
		}
		if len(got) != 1 || got[0] != uint64(i)*2 {
			t.Fatalf("key %d: expected [%d], got %v", i, i*2, got)
		}
	}

	if got := dst.Get(EncodeUint64(1000)); len(got) != 1 || got[0] != 1 {
		t.Fatalf("pre-existing key 1000 should survive the merge, got %v", got)
	}
}

func TestMergeEmptySource(t *testing.T) {
	src := NewART()
	dst := NewConcurrentART()
	dst.Put(EncodeUint64(1), 1)

	if err := Merge(dst, src); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if got := dst.Get(EncodeUint64(1)); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected preexisting entry to survive merging an empty tree, got %v", got)
	}
}
