package art

import (
	"fmt"
	"os"
)

// NewART builds an empty, in-memory ART. Call Open instead to additionally
// back it with a file for later Serialize/reload.
func NewART() *ART {
	return &ART{allocators: newAllocatorSet()}
}

// Open creates the index and metadata files named by opts if they do not
// exist (existing contents are left in place) and returns a ready-to-use
// ART. The tree itself starts empty; use Deserialize to reload a
// previously serialized tree instead.
func Open(opts Opts) (*ART, error) {
	if opts.FileName == "" {
		return nil, fmt.Errorf("art: Open requires a FileName")
	}

	indexPath := opts.Filepath + "/" + opts.FileName
	metaPath := indexPath + ".meta"

	indexFile, err := os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("art: opening index file: %w", err)
	}

	metaFile, err := os.OpenFile(metaPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		indexFile.Close()
		return nil, fmt.Errorf("art: opening meta file: %w", err)
	}

	t := &ART{
		allocators: newAllocatorSet(),
		ownsData:   true,
		filepath:   opts.Filepath,
		fileName:   opts.FileName,
		indexFile:  indexFile,
		metaFile:   metaFile,
		opened:     true,
	}

	return t, nil
}

// Close flushes any mapped data and releases the underlying files. It does
// not free the in-memory tree; drop the ART value itself for that.
func (t *ART) Close() error {
	if !t.opened {
		return nil
	}

	if m, ok := t.data.Load().(MMap); ok && m != nil {
		if err := m.Flush(); err != nil {
			return fmt.Errorf("art: flushing index mapping: %w", err)
		}
		if err := m.Unmap(); err != nil {
			return fmt.Errorf("art: unmapping index file: %w", err)
		}
	}

	var firstErr error
	if t.indexFile != nil {
		if err := t.indexFile.Close(); err != nil {
			firstErr = err
		}
	}
	if t.metaFile != nil {
		if err := t.metaFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	t.opened = false
	return firstErr
}

// Put associates docID with key, appending to key's existing doc-id set if
// one is already present rather than replacing it (spec's key->multiset
// model).
func (t *ART) Put(key ARTKey, docID uint64) {
	insert(t, &t.root, key, 0, docID)
}

// Get returns every doc id currently associated with key, or nil if key is
// absent. The returned slice is a fresh copy; mutating it is safe.
func (t *ART) Get(key ARTKey) []uint64 {
	handle := t.root
	depth := 0

	for {
		if !handle.IsSet() {
			return nil
		}

		if handle.IsSerialized() {
			loaded, err := t.loadSerialized(handle)
			if err != nil {
				return nil
			}
			handle = loaded
			continue
		}

		if depth == len(key) {
			switch handle.GetType() {
			case NTypeLeaf, NTypeLeafInlined:
				return leafDocIDs(t, handle)
			default:
				return nil
			}
		}

		switch handle.GetType() {
		case NTypePrefix:
			newDepth, next, mismatch := prefixTraverse(t, handle, key, depth)
			if mismatch != InvalidIndex {
				return nil
			}
			depth = newDepth
			handle = next
		case NTypeNode4, NTypeNode16, NTypeNode48, NTypeNode256:
			child, ok := getChildInner(t, handle, key[depth])
			if !ok {
				return nil
			}
			handle = child
			depth++
		case NTypeLeaf, NTypeLeafInlined:
			// Key has a strict extra suffix beyond an existing terminal
			// leaf: not present under the fixed-width key encoding this
			// tree is built for.
			return nil
		default:
			return nil
		}
	}
}

// Count reports how many doc ids key owns. It is computed as
// len(t.Get(key)), so it costs the same as Get.
func (t *ART) Count(key ARTKey) int {
	return len(t.Get(key))
}

// insert walks cursor down to key's terminal position, growing the tree as
// needed, and attaches docID there. cursor always addresses a live slot
// inside either t.root, a prefixNode.Next field, or an inner node's
// Children[] array, so writes through it persist into the tree.
func insert(t *ART, cursor *Node, key ARTKey, depth int, docID uint64) {
	for {
		if cursor.IsSerialized() {
			loaded, err := t.loadSerialized(*cursor)
			if err != nil {
				panic(err)
			}
			*cursor = loaded
		}

		if !cursor.IsSet() {
			*cursor = newPrefix(t, key[depth:], newInlinedLeaf(docID))
			return
		}

		if depth == len(key) {
			leafAppend(t, cursor, docID)
			return
		}

		switch cursor.GetType() {
		case NTypePrefix:
			newDepth, _, mismatch := prefixTraverse(t, *cursor, key, depth)
			if mismatch != InvalidIndex {
				prefixSplit(t, cursor, key, depth, mismatch, docID)
				return
			}
			cursor = lastPrefixNext(t, *cursor)
			depth = newDepth

		case NTypeNode4, NTypeNode16, NTypeNode48, NTypeNode256:
			b := key[depth]
			if _, ok := getChildInner(t, *cursor, b); !ok {
				newLeaf := newPrefix(t, key[depth+1:], newInlinedLeaf(docID))
				insertChildInner(t, cursor, b, newLeaf)
				return
			}
			cursor = childSlotPtr(t, *cursor, b)
			depth++

		case NTypeLeaf, NTypeLeafInlined:
			leafAppend(t, cursor, docID)
			return

		default:
			panic("art: insert reached an unrecognized node type")
		}
	}
}

// loadSerialized is overridden in effect by serialize.go's lazy-fault path;
// a plain in-memory ART that was never opened against a file has nothing
// to fault in.
func (t *ART) loadSerialized(handle Node) (Node, error) {
	if !t.opened {
		return 0, fmt.Errorf("art: cannot resolve a serialized handle on an unopened tree")
	}
	return t.deserializeNode(handle.BlockPointer())
}
