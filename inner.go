package art

// node4, node16, node48 and node256 are the ART's adaptive inner-node
// variants. Node4/16 keep a sorted key array and linear-scan it (cheap at
// these small fan-outs); Node48 indirects through a 256-entry byte->slot
// index; Node256 indexes children directly by byte.
type node4 struct {
	Key      [Node4Capacity]byte
	Children [Node4Capacity]Node
	Count    uint8
}

type node16 struct {
	Key      [Node16Capacity]byte
	Children [Node16Capacity]Node
	Count    uint8
}

type node48 struct {
	ChildIndex [256]uint8
	Children   [Node48Capacity]Node
	Count      uint8
}

type node256 struct {
	Children [Node256Capacity]Node
	Count    uint16
}

func newNode4(t *ART) Node {
	handle, _ := t.allocators.node4.New(NTypeNode4)
	return handle
}

func newNode16(t *ART) Node {
	handle, _ := t.allocators.node16.New(NTypeNode16)
	return handle
}

func newNode48(t *ART) Node {
	handle, n := t.allocators.node48.New(NTypeNode48)
	for i := range n.ChildIndex {
		n.ChildIndex[i] = EmptyMarker
	}
	return handle
}

func newNode256(t *ART) Node {
	handle, _ := t.allocators.node256.New(NTypeNode256)
	return handle
}

// getChildInner looks up byte within an inner node of any fan-out.
func getChildInner(t *ART, handle Node, b byte) (Node, bool) {
	switch handle.GetType() {
	case NTypeNode4:
		n := t.allocators.node4.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				return n.Children[i], true
			}
		}
		return 0, false
	case NTypeNode16:
		n := t.allocators.node16.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				return n.Children[i], true
			}
		}
		return 0, false
	case NTypeNode48:
		n := t.allocators.node48.Get(handle)
		idx := n.ChildIndex[b]
		if idx == EmptyMarker {
			return 0, false
		}
		return n.Children[idx], true
	case NTypeNode256:
		n := t.allocators.node256.Get(handle)
		if !n.Children[b].IsSet() {
			return 0, false
		}
		return n.Children[b], true
	default:
		panic("art: getChildInner called on a non-inner node")
	}
}

// setChildInner overwrites an existing child pointer in place (used after
// recursing into a child and getting back an updated handle), without
// touching count/sortedness since the byte is already present.
func setChildInner(t *ART, handle Node, b byte, child Node) {
	switch handle.GetType() {
	case NTypeNode4:
		n := t.allocators.node4.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				n.Children[i] = child
				return
			}
		}
	case NTypeNode16:
		n := t.allocators.node16.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				n.Children[i] = child
				return
			}
		}
	case NTypeNode48:
		n := t.allocators.node48.Get(handle)
		idx := n.ChildIndex[b]
		if idx != EmptyMarker {
			n.Children[idx] = child
		}
	case NTypeNode256:
		n := t.allocators.node256.Get(handle)
		n.Children[b] = child
	default:
		panic("art: setChildInner called on a non-inner node")
	}
}

// insertChildInner inserts a new byte->child pair, growing to the next
// node size in place first if the node is already at capacity.
func insertChildInner(t *ART, handle *Node, b byte, child Node) {
	switch handle.GetType() {
	case NTypeNode4:
		n := t.allocators.node4.Get(*handle)
		if n.Count == Node4Capacity {
			grow4to16(t, handle)
			insertChildInner(t, handle, b, child)
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
		n := t.allocators.node16.Get(*handle)
		if n.Count == Node16Capacity {
			grow16to48(t, handle)
			insertChildInner(t, handle, b, child)
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
		n := t.allocators.node48.Get(*handle)
		if n.Count == Node48Capacity {
			grow48to256(t, handle)
			insertChildInner(t, handle, b, child)
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
		n := t.allocators.node256.Get(*handle)
		n.Children[b] = child
		n.Count++
	default:
		panic("art: insertChildInner called on a non-inner node")
	}
}

// childSlotPtr returns the address of the Children[] slot byte b occupies
// in handle, so a caller can keep descending and writing back through that
// slot without re-searching the node.
func childSlotPtr(t *ART, handle Node, b byte) *Node {
	switch handle.GetType() {
	case NTypeNode4:
		n := t.allocators.node4.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				return &n.Children[i]
			}
		}
	case NTypeNode16:
		n := t.allocators.node16.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			if n.Key[i] == b {
				return &n.Children[i]
			}
		}
	case NTypeNode48:
		n := t.allocators.node48.Get(handle)
		idx := n.ChildIndex[b]
		if idx != EmptyMarker {
			return &n.Children[idx]
		}
	case NTypeNode256:
		n := t.allocators.node256.Get(handle)
		return &n.Children[b]
	}
	panic("art: childSlotPtr on an absent byte")
}

func countChildrenInner(t *ART, handle Node) int {
	switch handle.GetType() {
	case NTypeNode4:
		return int(t.allocators.node4.Get(handle).Count)
	case NTypeNode16:
		return int(t.allocators.node16.Get(handle).Count)
	case NTypeNode48:
		return int(t.allocators.node48.Get(handle).Count)
	case NTypeNode256:
		return int(t.allocators.node256.Get(handle).Count)
	default:
		panic("art: countChildrenInner called on a non-inner node")
	}
}

func grow4to16(t *ART, handle *Node) {
	old := t.allocators.node4.Get(*handle)
	newHandle := newNode16(t)
	n := t.allocators.node16.Get(newHandle)

	copy(n.Key[:old.Count], old.Key[:old.Count])
	copy(n.Children[:old.Count], old.Children[:old.Count])
	n.Count = old.Count

	t.allocators.node4.Free(*handle)
	*handle = newHandle
}

func grow16to48(t *ART, handle *Node) {
	old := t.allocators.node16.Get(*handle)
	newHandle := newNode48(t)
	n := t.allocators.node48.Get(newHandle)

	for i := uint8(0); i < old.Count; i++ {
		n.ChildIndex[old.Key[i]] = i
		n.Children[i] = old.Children[i]
	}
	n.Count = old.Count

	t.allocators.node16.Free(*handle)
	*handle = newHandle
}

func grow48to256(t *ART, handle *Node) {
	old := t.allocators.node48.Get(*handle)
	newHandle := newNode256(t)
	n := t.allocators.node256.Get(newHandle)

	for b := 0; b < 256; b++ {
		idx := old.ChildIndex[b]
		if idx != EmptyMarker {
			n.Children[b] = old.Children[idx]
		}
	}
	n.Count = uint16(old.Count)

	t.allocators.node48.Free(*handle)
	*handle = newHandle
}

func freeInner(t *ART, handle Node) {
	switch handle.GetType() {
	case NTypeNode4:
		n := t.allocators.node4.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			freeNode(t, &n.Children[i])
		}
		t.allocators.node4.Free(handle)
	case NTypeNode16:
		n := t.allocators.node16.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			freeNode(t, &n.Children[i])
		}
		t.allocators.node16.Free(handle)
	case NTypeNode48:
		n := t.allocators.node48.Get(handle)
		for b := 0; b < 256; b++ {
			idx := n.ChildIndex[b]
			if idx != EmptyMarker {
				freeNode(t, &n.Children[idx])
			}
		}
		t.allocators.node48.Free(handle)
	case NTypeNode256:
		n := t.allocators.node256.Get(handle)
		for b := 0; b < 256; b++ {
			if n.Children[b].IsSet() {
				freeNode(t, &n.Children[b])
			}
		}
		t.allocators.node256.Free(handle)
	default:
		panic("art: freeInner called on a non-inner node")
	}
}
