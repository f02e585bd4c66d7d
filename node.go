package art

// freeNode releases handle and, for inner/prefix nodes, recursively frees
// everything reachable beneath it. Leaves (inlined or chained) are freed by
// leafFree. Close does not call it, and the package has no delete
// operation.
func freeNode(t *ART, handle *Node) {
	if handle == nil || !handle.IsSet() || handle.IsSerialized() {
		return
	}

	switch handle.GetType() {
	case NTypePrefix:
		n := t.allocators.prefix.Get(*handle)
		next := n.Next
		t.allocators.prefix.Free(*handle)
		freeNode(t, &next)
	case NTypeLeaf, NTypeLeafInlined:
		leafFree(t, *handle)
	case NTypeNode4, NTypeNode16, NTypeNode48, NTypeNode256:
		freeInner(t, *handle)
	default:
		panic("art: freeNode on unknown node type")
	}
}

// isInner reports whether handle addresses one of the four inner-node
// variants (as opposed to a prefix link or a leaf).
func isInner(handle Node) bool {
	switch handle.GetType() {
	case NTypeNode4, NTypeNode16, NTypeNode48, NTypeNode256:
		return true
	default:
		return false
	}
}
