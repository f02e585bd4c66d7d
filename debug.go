package art

import "fmt"

// Dump returns, as a string (this is a debugging aid rather than a hot
// path), a line per node reachable from the root, mirroring the
// reference's PrintChildren walker: one indented line per node with its
// type and, for leaves, the doc ids it owns, plus a line per child byte of
// each inner node.
func (t *ART) Dump() string {
	var out string
	out = dumpNode(t, t.root, 0)
	return out
}

func dumpNode(t *ART, handle Node, indent int) string {
	pad := ""
	for i := 0; i < indent; i++ {
		pad += "  "
	}

	if !handle.IsSet() {
		return fmt.Sprintf("%s<empty>\n", pad)
	}
	if handle.IsSerialized() {
		return fmt.Sprintf("%s<serialized %+v>\n", pad, handle.BlockPointer())
	}

	switch handle.GetType() {
	case NTypePrefix:
		n := t.allocators.prefix.Get(handle)
		s := fmt.Sprintf("%sprefix %v\n", pad, n.Data[:n.Count])
		return s + dumpNode(t, n.Next, indent)

	case NTypeLeaf, NTypeLeafInlined:
		return fmt.Sprintf("%sleaf docIDs=%v\n", pad, leafDocIDs(t, handle))

	case NTypeNode4:
		n := t.allocators.node4.Get(handle)
		s := fmt.Sprintf("%snode4 count=%d\n", pad, n.Count)
		for i := uint8(0); i < n.Count; i++ {
			s += fmt.Sprintf("%s byte=%#x\n", pad, n.Key[i])
			s += dumpNode(t, n.Children[i], indent+1)
		}
		return s

	case NTypeNode16:
		n := t.allocators.node16.Get(handle)
		s := fmt.Sprintf("%snode16 count=%d\n", pad, n.Count)
		for i := uint8(0); i < n.Count; i++ {
			s += fmt.Sprintf("%s byte=%#x\n", pad, n.Key[i])
			s += dumpNode(t, n.Children[i], indent+1)
		}
		return s

	case NTypeNode48:
		n := t.allocators.node48.Get(handle)
		s := fmt.Sprintf("%snode48 count=%d\n", pad, n.Count)
		for b := 0; b < 256; b++ {
			idx := n.ChildIndex[b]
			if idx == EmptyMarker {
				continue
			}
			s += fmt.Sprintf("%s byte=%#x\n", pad, b)
			s += dumpNode(t, n.Children[idx], indent+1)
		}
		return s

	case NTypeNode256:
		n := t.allocators.node256.Get(handle)
		s := fmt.Sprintf("%snode256 count=%d\n", pad, n.Count)
		for b := 0; b < 256; b++ {
			if !n.Children[b].IsSet() {
				continue
			}
			s += fmt.Sprintf("%s byte=%#x\n", pad, b)
			s += dumpNode(t, n.Children[b], indent+1)
		}
		return s

	default:
		return fmt.Sprintf("%s<unknown type %d>\n", pad, handle.GetType())
	}
}
