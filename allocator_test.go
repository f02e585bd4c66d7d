package art

import "testing"

func TestLowestClearBit(t *testing.T) {
	idx, ok := lowestClearBit(0)
	if !ok || idx != 0 {
		t.Fatalf("expected bit 0 clear in an empty word, got idx=%d ok=%v", idx, ok)
	}

	idx, ok = lowestClearBit(0b1111)
	if !ok || idx != 4 {
		t.Fatalf("expected bit 4 clear, got idx=%d ok=%v", idx, ok)
	}

	_, ok = lowestClearBit(^uint64(0))
	if ok {
		t.Fatalf("an all-ones word has no clear bit")
	}
}

func TestSlabAllocateAndFree(t *testing.T) {
	s := newSlab[node4](NTypeNode4)

	handle, n := s.New(NTypeNode4)
	n.Count = 1
	n.Key[0] = 'a'

	if s.LiveCount() != 1 {
		t.Fatalf("expected 1 live slot, got %d", s.LiveCount())
	}

	got := s.Get(handle)
	if got.Key[0] != 'a' {
		t.Fatalf("slab lost data written through the returned pointer")
	}

	s.Free(handle)
	if s.LiveCount() != 0 {
		t.Fatalf("expected 0 live slots after Free, got %d", s.LiveCount())
	}
}

func TestSlabGrowsAcrossBufferBoundary(t *testing.T) {
	s := newSlab[node4](NTypeNode4)

	slotsPerBuf := s.slotsPerBuf
	handles := make([]Node, 0, slotsPerBuf+10)
	for i := 0; i < slotsPerBuf+10; i++ {
		h, _ := s.New(NTypeNode4)
		handles = append(handles, h)
	}

	if len(s.buffers) < 2 {
		t.Fatalf("expected slab to have spilled into a second buffer, got %d buffers", len(s.buffers))
	}
	if s.LiveCount() != slotsPerBuf+10 {
		t.Fatalf("expected %d live slots, got %d", slotsPerBuf+10, s.LiveCount())
	}

	for _, h := range handles {
		s.Free(h)
	}
	if s.LiveCount() != 0 {
		t.Fatalf("expected 0 live slots after freeing everything, got %d", s.LiveCount())
	}
}

func TestAllocatorSetLiveCountAcrossTypes(t *testing.T) {
	a := newAllocatorSet()

	h1, _ := a.prefix.New(NTypePrefix)
	h2, _ := a.leaf.New(NTypeLeaf)

	if a.LiveCount() != 2 {
		t.Fatalf("expected 2 live nodes across the allocator set, got %d", a.LiveCount())
	}

	a.prefix.Free(h1)
	a.leaf.Free(h2)

	if a.LiveCount() != 0 {
		t.Fatalf("expected 0 live nodes, got %d", a.LiveCount())
	}
}
