package art

// prefixNode stores up to PrefixSize bytes of a shared key fragment. Longer
// shared fragments chain through Next (another prefixNode) before reaching
// the node the prefix actually guards; Next.GetType() == NTypePrefix while
// chaining, and some other inner/leaf type at the chain's end.
type prefixNode struct {
	Data  [PrefixSize]byte
	Count uint8
	Next  Node
}

// newPrefix builds a (possibly chained) prefix run of data[:length] attached
// in front of tail, writing the longest chunks first the way the reference
// Prefix::New lays out a new Prefix chain.
func newPrefix(t *ART, data []byte, tail Node) Node {
	if len(data) == 0 {
		return tail
	}

	n := len(data)
	if n > PrefixSize {
		rest := newPrefix(t, data[PrefixSize:], tail)
		return newPrefix(t, data[:PrefixSize], rest)
	}

	handle, node := t.allocators.prefix.New(NTypePrefix)
	copy(node.Data[:], data)
	node.Count = uint8(n)
	node.Next = tail
	return handle
}

// prefixBytes collects the full byte run stored by a prefix chain starting
// at handle, along with the handle of the first non-prefix node reached.
func prefixBytes(t *ART, handle Node) ([]byte, Node) {
	var out []byte
	cur := handle
	for cur.IsSet() && !cur.IsSerialized() && cur.GetType() == NTypePrefix {
		n := t.allocators.prefix.Get(cur)
		out = append(out, n.Data[:n.Count]...)
		cur = n.Next
	}
	return out, cur
}

// prefixTraverse walks handle's prefix chain against key starting at depth,
// advancing depth for every matching byte. It returns the new depth, the
// handle of the first node past the prefix chain, and the index (relative
// to the chain's own bytes) of the first mismatching byte, or InvalidIndex
// if the whole chain matched.
func prefixTraverse(t *ART, handle Node, key ARTKey, depth int) (newDepth int, next Node, mismatch uint64) {
	cur := handle
	consumed := 0

	for cur.IsSet() && !cur.IsSerialized() && cur.GetType() == NTypePrefix {
		n := t.allocators.prefix.Get(cur)
		for i := uint8(0); i < n.Count; i++ {
			if depth >= len(key) || key[depth] != n.Data[i] {
				return depth, cur, uint64(consumed) + uint64(i)
			}
			depth++
		}
		consumed += int(n.Count)
		cur = n.Next
	}

	return depth, cur, InvalidIndex
}

// prefixSplit breaks handle's prefix chain at byte offset mismatchAt
// (counted across the whole chain), inserting a new inner node4 at the
// split point holding the old continuation under its original next byte and
// a fresh leaf for docID under the inserted key's diverging byte.
//
// The inserted key is required to diverge strictly before its own end
// (two keys where one is a byte-for-byte prefix of the other cannot both
// terminate inside the same prefix chain); this holds for every fixed-width
// encoded key produced by radix.go.
func prefixSplit(t *ART, handle *Node, key ARTKey, depth int, mismatchAt uint64, docID uint64) {
	full, tail := prefixBytes(t, *handle)

	matched := full[:mismatchAt]
	oldByte := full[mismatchAt]
	oldRest := full[mismatchAt+1:]

	branch := newNode4(t)

	oldSide := newPrefix(t, oldRest, tail)
	insertChildInner(t, &branch, oldByte, oldSide)

	newDepth := depth + int(mismatchAt)
	newByte := key[newDepth]
	newSide := newPrefix(t, key[newDepth+1:], newInlinedLeaf(docID))
	insertChildInner(t, &branch, newByte, newSide)

	freePrefixChainOnly(t, *handle)
	*handle = newPrefix(t, matched, branch)
}

// freePrefixChainOnly releases every link of a prefix chain's own nodes
// without touching whatever non-prefix node the chain terminates at —
// unlike freeNode, which would recurse into and free that tail too. Used
// after the chain's bytes and tail handle have already been captured and
// the tail is about to be reattached elsewhere (see prefixSplit).
func freePrefixChainOnly(t *ART, handle Node) {
	cur := handle
	for cur.IsSet() && !cur.IsSerialized() && cur.GetType() == NTypePrefix {
		n := t.allocators.prefix.Get(cur)
		next := n.Next
		t.allocators.prefix.Free(cur)
		cur = next
	}
}

// lastPrefixNext returns the address of the Next field on the final link
// of handle's prefix chain, so a caller descending through the chain can
// keep writing back into the tree without re-walking it.
func lastPrefixNext(t *ART, handle Node) *Node {
	n := t.allocators.prefix.Get(handle)
	for n.Next.IsSet() && !n.Next.IsSerialized() && n.Next.GetType() == NTypePrefix {
		n = t.allocators.prefix.Get(n.Next)
	}
	return &n.Next
}
