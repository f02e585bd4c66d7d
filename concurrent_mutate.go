package art

// concurrent_mutate.go holds the write-side counterparts of prefix.go,
// leaf.go and inner.go for ConcurrentART. The structural algorithms are
// identical to the single-threaded tree; what differs is that every node
// this code touches is assumed to already be held under an exclusive lock
// by the caller's lock-coupling descent (see ConcurrentART.Put), so no
// additional synchronization happens here.

func newConcurrentPrefix(ct *ConcurrentART, data []byte, tail Node) Node {
	if len(data) == 0 {
		return tail
	}

	n := len(data)
	if n > PrefixSize {
		rest := newConcurrentPrefix(ct, data[PrefixSize:], tail)
		return newConcurrentPrefix(ct, data[:PrefixSize], rest)
	}

	handle, node := ct.allocators.prefix.New(NTypePrefix)
	copy(node.Data[:], data)
	node.Count = uint8(n)
	node.Next = tail
	return handle
}

func newConcurrentLeafChain(ct *ConcurrentART, docID uint64) Node {
	handle, n := ct.allocators.leaf.New(NTypeLeaf)
	n.RowIDs[0] = docID
	n.Count = 1
	return handle
}

func concurrentLeafAppend(ct *ConcurrentART, handle *Node, docID uint64) {
	if handle.GetType() == NTypeLeafInlined {
		existing := handle.GetDocID()
		chain := newConcurrentLeafChain(ct, existing)
		concurrentLeafAppend(ct, &chain, docID)
		*handle = chain
		return
	}

	cur := ct.allocators.leaf.Get(*handle)
	for cur.Count == LeafSize && cur.Next.IsSet() {
		cur = ct.allocators.leaf.Get(cur.Next)
	}
	if cur.Count < LeafSize {
		cur.RowIDs[cur.Count] = docID
		cur.Count++
		return
	}
	cur.Next = newConcurrentLeafChain(ct, docID)
}

func newConcurrentNode4(ct *ConcurrentART) Node {
	handle, _ := ct.allocators.node4.New(NTypeNode4)
	return handle
}

func newConcurrentNode16(ct *ConcurrentART) Node {
	handle, _ := ct.allocators.node16.New(NTypeNode16)
	return handle
}

func newConcurrentNode48(ct *ConcurrentART) Node {
	handle, n := ct.allocators.node48.New(NTypeNode48)
	for i := range n.ChildIndex {
		n.ChildIndex[i] = EmptyMarker
	}
	return handle
}

func newConcurrentNode256(ct *ConcurrentART) Node {
	handle, _ := ct.allocators.node256.New(NTypeNode256)
	return handle
}

func concurrentChildSlotPtr(ct *ConcurrentART, handle Node, b byte) *Node {
	switch handle.GetType() {
	case NTypeNode4:
		n := ct.allocators.node4.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				return &n.Children[i]
			}
		}
	case NTypeNode16:
		n := ct.allocators.node16.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				return &n.Children[i]
			}
		}
	case NTypeNode48:
		n := ct.allocators.node48.Get(handle)
		idx := n.ChildIndex[b]
		if idx != EmptyMarker {
			return &n.Children[idx]
		}
	case NTypeNode256:
		n := ct.allocators.node256.Get(handle)
		return &n.Children[b]
	}
	panic("art: concurrentChildSlotPtr on an absent byte")
}

func concurrentInsertChild(ct *ConcurrentART, handle *Node, b byte, child Node) {
	switch handle.GetType() {
	case NTypeNode4:
		n := ct.allocators.node4.Get(*handle)
		if n.Count == Node4Capacity {
			concurrentGrow4to16(ct, handle)
			concurrentInsertChild(ct, handle, b, child)
			return
		}
		pos := uint8(0)
		for pos < n.Count && n.Key[pos] < b {
			pos++
		}
		copy(n.Key[pos+1:n.Count+1], n.Key[pos:n.Count])
		copy(n.Children[pos+1:n.Count+1], n.Children[pos:n.Count])
		n.Key[pos] = b
		n.Children[pos] = child
		n.Count++
	case NTypeNode16:
		n := ct.allocators.node16.Get(*handle)
		if n.Count == Node16Capacity {
			concurrentGrow16to48(ct, handle)
			concurrentInsertChild(ct, handle, b, child)
			return
		}
		pos := uint8(0)
		for pos < n.Count && n.Key[pos] < b {
			pos++
		}
		copy(n.Key[pos+1:n.Count+1], n.Key[pos:n.Count])
		copy(n.Children[pos+1:n.Count+1], n.Children[pos:n.Count])
		n.Key[pos] = b
		n.Children[pos] = child
		n.Count++
	case NTypeNode48:
		n := ct.allocators.node48.Get(*handle)
		if n.Count == Node48Capacity {
			concurrentGrow48to256(ct, handle)
			concurrentInsertChild(ct, handle, b, child)
			return
		}
		slot := uint8(0)
		for slot < Node48Capacity && n.Children[slot].IsSet() {
			slot++
		}
		n.ChildIndex[b] = slot
		n.Children[slot] = child
		n.Count++
	case NTypeNode256:
		n := ct.allocators.node256.Get(*handle)
		n.Children[b] = child
		n.Count++
	default:
		panic("art: concurrentInsertChild on a non-inner node")
	}
}

func concurrentGrow4to16(ct *ConcurrentART, handle *Node) {
	old := ct.allocators.node4.Get(*handle)
	newHandle := newConcurrentNode16(ct)
	n := ct.allocators.node16.Get(newHandle)
	copy(n.Key[:old.Count], old.Key[:old.Count])
	copy(n.Children[:old.Count], old.Children[:old.Count])
	n.Count = old.Count
	ct.allocators.node4.Free(*handle)
	*handle = newHandle
}

func concurrentGrow16to48(ct *ConcurrentART, handle *Node) {
	old := ct.allocators.node16.Get(*handle)
	newHandle := newConcurrentNode48(ct)
	n := ct.allocators.node48.Get(newHandle)
	for i := uint8(0); i < old.Count; i++ {
		n.ChildIndex[old.Key[i]] = i
		n.Children[i] = old.Children[i]
	}
	n.Count = old.Count
	ct.allocators.node16.Free(*handle)
	*handle = newHandle
}

func concurrentGrow48to256(ct *ConcurrentART, handle *Node) {
	old := ct.allocators.node48.Get(*handle)
	newHandle := newConcurrentNode256(ct)
	n := ct.allocators.node256.Get(newHandle)
	for b := 0; b < 256; b++ {
		idx := old.ChildIndex[b]
		if idx != EmptyMarker {
			n.Children[b] = old.Children[idx]
		}
	}
	n.Count = uint16(old.Count)
	ct.allocators.node48.Free(*handle)
	*handle = newHandle
}

// concurrentPrefixSplit is prefixSplit's counterpart; see prefix.go for the
// rationale behind requiring the inserted key to diverge before its own end.
func concurrentPrefixSplit(ct *ConcurrentART, handle *Node, key ARTKey, depth int, mismatchAt uint64, docID uint64) {
	full, tail := concurrentPrefixBytes(ct, *handle)

	matched := full[:mismatchAt]
	oldByte := full[mismatchAt]
	oldRest := full[mismatchAt+1:]

	branch := newConcurrentNode4(ct)

	oldSide := newConcurrentPrefix(ct, oldRest, tail)
	concurrentInsertChild(ct, &branch, oldByte, oldSide)

	newDepth := depth + int(mismatchAt)
	newByte := key[newDepth]
	newSide := newConcurrentPrefix(ct, key[newDepth+1:], newInlinedLeaf(docID))
	concurrentInsertChild(ct, &branch, newByte, newSide)

	freeConcurrentPrefixChainOnly(ct, *handle)
	*handle = newConcurrentPrefix(ct, matched, branch)
}

// freeConcurrentPrefixChainOnly mirrors freePrefixChainOnly for the
// lock-carrying prefix chain.
func freeConcurrentPrefixChainOnly(ct *ConcurrentART, handle Node) {
	cur := handle
	for cur.IsSet() && !cur.IsSerialized() && cur.GetType() == NTypePrefix {
		n := ct.allocators.prefix.Get(cur)
		next := n.Next
		ct.allocators.prefix.Free(cur)
		cur = next
	}
}
