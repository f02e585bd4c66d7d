package art

// leafNode is one link of a doc-id chain hanging off a fully-matched key.
// A key that currently owns exactly one doc id never allocates a leafNode
// at all: its id lives inlined directly in the parent's Node handle
// (NTypeLeafInlined). A leafNode is only allocated the moment a second
// doc id needs to attach to the same key, and further links are added as
// LeafSize-sized chunks fill up.
type leafNode struct {
	Count  uint8
	RowIDs [LeafSize]uint64
	Next   Node
}

// newInlinedLeaf builds the zero-allocation single-doc-id representation.
func newInlinedLeaf(docID uint64) Node {
	var n Node
	n.SetDocID(docID)
	n.SetType(NTypeLeafInlined)
	// SetType's bit range overlaps the flag byte only; doc id occupies the
	// low 56 bits same as SetDocID wrote, so order here doesn't corrupt it
	// so long as SetType only ORs bits at shiftType and above.
	return n
}

func newLeafChain(t *ART, docID uint64) Node {
	handle, n := t.allocators.leaf.New(NTypeLeaf)
	n.RowIDs[0] = docID
	n.Count = 1
	return handle
}

// leafAppend adds docID to the key's doc-id set, promoting an inlined leaf
// to a one-element chain on its first collision and growing the chain with
// extra links as each LeafSize-sized block fills.
func leafAppend(t *ART, handle *Node, docID uint64) {
	if handle.GetType() == NTypeLeafInlined {
		existing := handle.GetDocID()
		chain := newLeafChain(t, existing)
		leafAppend(t, &chain, docID)
		*handle = chain
		return
	}

	n := t.allocators.leaf.Get(*handle)
	cur := n
	curHandle := *handle
	for cur.Count == LeafSize && cur.Next.IsSet() {
		curHandle = cur.Next
		cur = t.allocators.leaf.Get(curHandle)
	}

	if cur.Count < LeafSize {
		cur.RowIDs[cur.Count] = docID
		cur.Count++
		return
	}

	nextHandle := newLeafChain(t, docID)
	cur.Next = nextHandle
}

// leafDocIDs flattens a key's full doc-id set, whether inlined or chained.
func leafDocIDs(t *ART, handle Node) []uint64 {
	if handle.GetType() == NTypeLeafInlined {
		return []uint64{handle.GetDocID()}
	}

	var out []uint64
	cur := handle
	for cur.IsSet() {
		n := t.allocators.leaf.Get(cur)
		out = append(out, n.RowIDs[:n.Count]...)
		cur = n.Next
	}
	return out
}

// leafTotalCount counts a key's doc ids without materializing the slice.
func leafTotalCount(t *ART, handle Node) int {
	if handle.GetType() == NTypeLeafInlined {
		return 1
	}

	total := 0
	cur := handle
	for cur.IsSet() {
		n := t.allocators.leaf.Get(cur)
		total += int(n.Count)
		cur = n.Next
	}
	return total
}

// leafFree releases every link in a chained leaf. Inlined leaves own no
// backing allocation and are a no-op.
func leafFree(t *ART, handle Node) {
	if handle.GetType() == NTypeLeafInlined {
		return
	}
	cur := handle
	for cur.IsSet() {
		n := t.allocators.leaf.Get(cur)
		next := n.Next
		t.allocators.leaf.Free(cur)
		cur = next
	}
}
