package art

import "fmt"

// Merge folds every key/doc-id pair in src into dst. It walks src with
// plain single-threaded traversal (src is assumed to have no concurrent
// writers during the merge, matching the reference cart_merge's
// precondition) and re-inserts each pair through dst's normal lock-coupled
// Put, so the result is exactly as if every src entry had been Put into
// dst directly, just batched through one call.
func Merge(dst *ConcurrentART, src *ART) error {
	if src == nil || dst == nil {
		return fmt.Errorf("art: Merge requires non-nil trees")
	}
	return mergeWalk(src, src.root, nil, dst)
}

// mergeWalk performs a DFS over src, reconstructing each terminal key from
// the path of bytes consumed by inner-node children and prefix chains,
// and reinserting its doc ids into dst once a leaf is reached.
func mergeWalk(src *ART, handle Node, path []byte, dst *ConcurrentART) error {
	if !handle.IsSet() {
		return nil
	}
	if handle.IsSerialized() {
		loaded, err := src.loadSerialized(handle)
		if err != nil {
			return fmt.Errorf("art: merge fault-in: %w", err)
		}
		handle = loaded
	}

	switch handle.GetType() {
	case NTypePrefix:
		n := src.allocators.prefix.Get(handle)
		return mergeWalk(src, n.Next, append(path, n.Data[:n.Count]...), dst)

	case NTypeLeaf, NTypeLeafInlined:
		key := ARTKey(path)
		for _, docID := range leafDocIDs(src, handle) {
			dst.Put(key, docID)
		}
		return nil

	case NTypeNode4:
		n := src.allocators.node4.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			childPath := append(append([]byte{}, path...), n.Key[i])
			if err := mergeWalk(src, n.Children[i], childPath, dst); err != nil {
				return err
			}
		}
		return nil

	case NTypeNode16:
		n := src.allocators.node16.Get(handle)
		for i := uint8(0); i < n.Count; i++ {
			childPath := append(append([]byte{}, path...), n.Key[i])
			if err := mergeWalk(src, n.Children[i], childPath, dst); err != nil {
				return err
			}
		}
		return nil

	case NTypeNode48:
		n := src.allocators.node48.Get(handle)
		for b := 0; b < 256; b++ {
			idx := n.ChildIndex[b]
			if idx == EmptyMarker {
				continue
			}
			childPath := append(append([]byte{}, path...), byte(b))
			if err := mergeWalk(src, n.Children[idx], childPath, dst); err != nil {
				return err
			}
		}
		return nil

	case NTypeNode256:
		n := src.allocators.node256.Get(handle)
		for b := 0; b < 256; b++ {
			if !n.Children[b].IsSet() {
				continue
			}
			childPath := append(append([]byte{}, path...), byte(b))
			if err := mergeWalk(src, n.Children[b], childPath, dst); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("art: merge encountered an unrecognized node type")
	}
}
