package art

import (
	"fmt"
	"os"
)

// NewConcurrentART builds an empty, in-memory concurrent ART.
func NewConcurrentART() *ConcurrentART {
	return &ConcurrentART{allocators: newConcurrentAllocatorSet()}
}

// OpenConcurrent is ConcurrentART's counterpart to Open.
func OpenConcurrent(opts Opts) (*ConcurrentART, error) {
	if opts.FileName == "" {
		return nil, fmt.Errorf("art: OpenConcurrent requires a FileName")
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

	return &ConcurrentART{
		allocators: newConcurrentAllocatorSet(),
		ownsData:   true,
		filepath:   opts.Filepath,
		fileName:   opts.FileName,
		indexFile:  indexFile,
		metaFile:   metaFile,
		opened:     true,
	}, nil
}

func (ct *ConcurrentART) Close() error {
	if !ct.opened {
		return nil
	}
	if m, ok := ct.data.Load().(MMap); ok && m != nil {
		if err := m.Flush(); err != nil {
			return err
		}
		if err := m.Unmap(); err != nil {
			return err
		}
	}
	var firstErr error
	if ct.indexFile != nil {
		if err := ct.indexFile.Close(); err != nil {
			firstErr = err
		}
	}
	if ct.metaFile != nil {
		if err := ct.metaFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ct.opened = false
	return firstErr
}

// Get performs a hand-over-hand read-locked descent: before releasing the
// parent's read lock it acquires the child's, so a concurrent writer can
// never observe a gap where neither is held (the crab-latch protocol spec
// §4.7/§5 describes).
func (ct *ConcurrentART) Get(key ARTKey) []uint64 {
	ct.resizeLock.RLock()
	defer ct.resizeLock.RUnlock()

	handle := Node(ct.root.Load())
	if !handle.IsSet() {
		return nil
	}

	parentLock := lockWordFor(ct, handle)
	rLock(parentLock)
	depth := 0

	for {
		if depth == len(key) {
			defer rUnlock(parentLock)
			switch handle.GetType() {
			case NTypeLeaf, NTypeLeafInlined:
				return concurrentLeafDocIDs(ct, handle)
			default:
				return nil
			}
		}

		switch handle.GetType() {
		case NTypePrefix:
			newDepth, next, mismatch := concurrentPrefixTraverse(ct, handle, key, depth)
			if mismatch != InvalidIndex || !next.IsSet() {
				rUnlock(parentLock)
				return nil
			}
			// An inlined leaf has no lock word of its own: its value was
			// copied out of the parent's slot, so the parent's lock stays held.
			nextLock := parentLock
			if next.GetType() != NTypeLeafInlined {
				nextLock = lockWordFor(ct, next)
				rLock(nextLock)
				rUnlock(parentLock)
			}
			parentLock, handle, depth = nextLock, next, newDepth

		case NTypeNode4, NTypeNode16, NTypeNode48, NTypeNode256:
			child, ok := concurrentGetChild(ct, handle, key[depth])
			if !ok {
				rUnlock(parentLock)
				return nil
			}
			childLock := parentLock
			if child.GetType() != NTypeLeafInlined {
				childLock = lockWordFor(ct, child)
				rLock(childLock)
				rUnlock(parentLock)
			}
			parentLock, handle, depth = childLock, child, depth+1

		default:
			rUnlock(parentLock)
			return nil
		}
	}
}

// Put performs the same hand-over-hand descent under exclusive locks.
// Holding the parent's write lock while examining and possibly replacing
// its child slot is what makes growth/split in concurrentInsertChild and
// concurrentPrefixSplit safe against a concurrent reader: a reader that
// already holds the old child's read lock finishes against the old node,
// which is only freed back to the slab once no lock is outstanding on it
// (the slab's own mutex in allocator.go serializes that release).
// Put performs the insert entirely within one loop so that, as the
// descent moves from the root into deeper allocated nodes, `set` always
// names the correct place to persist a replacement handle: the atomic
// root word for as long as the walk is still positioned on the root, or a
// direct write into the parent's own Children/Next field once the walk
// has moved past it (that memory is already part of the tree, so no
// further propagation is needed).
func (ct *ConcurrentART) Put(key ARTKey, docID uint64) {
	ct.resizeLock.RLock()
	defer ct.resizeLock.RUnlock()

	for {
		rootHandle := Node(ct.root.Load())
		if !rootHandle.IsSet() {
			fresh := newConcurrentPrefix(ct, key, newInlinedLeaf(docID))
			if ct.root.CompareAndSwap(uint64(rootHandle), uint64(fresh)) {
				return
			}
			continue
		}

		parentLock := lockWordFor(ct, rootHandle)
		lock(parentLock)
		if Node(ct.root.Load()) != rootHandle {
			unlock(parentLock)
			continue
		}

		cursor := rootHandle
		set := func(v Node) { ct.root.Store(uint64(v)) }
		depth := 0

		for {
			if depth == len(key) {
				set(appendDocAndReturn(ct, cursor, docID))
				unlock(parentLock)
				return
			}

			switch cursor.GetType() {
			case NTypePrefix:
				newDepth, next, mismatch := concurrentPrefixTraverse(ct, cursor, key, depth)
				if mismatch != InvalidIndex {
					c := cursor
					concurrentPrefixSplit(ct, &c, key, depth, mismatch, docID)
					set(c)
					// The split freed cursor's chain, lock word included, so
					// there is no held lock left to release.
					return
				}
				// concurrentPrefixTraverse only walks a single link, so the
				// descent must cross one lock per link exactly like the
				// inner-node case below: lock next before releasing cursor's
				// lock, and loop back around in case next is itself another
				// prefix link.
				// An inlined leaf has no lock word; it is written back into
				// nextSlot while cursor's lock is still held.
				nextSlot := concurrentPrefixNextSlot(ct, cursor)
				nextLock := parentLock
				if next.GetType() != NTypeLeafInlined {
					nextLock = lockWordFor(ct, next)
					lock(nextLock)
					unlock(parentLock)
				}
				parentLock = nextLock
				cursor = next
				set = func(v Node) { *nextSlot = v }
				depth = newDepth

			case NTypeNode4, NTypeNode16, NTypeNode48, NTypeNode256:
				b := key[depth]
				if _, ok := concurrentGetChild(ct, cursor, b); !ok {
					newLeaf := newConcurrentPrefix(ct, key[depth+1:], newInlinedLeaf(docID))
					c := cursor
					concurrentInsertChild(ct, &c, b, newLeaf)
					set(c)
					// A grow freed cursor's slot and its lock word with it.
					if c == cursor {
						unlock(parentLock)
					}
					return
				}
				childSlot := concurrentChildSlotPtr(ct, cursor, b)
				childLock := parentLock
				if childSlot.GetType() != NTypeLeafInlined {
					childLock = lockWordFor(ct, *childSlot)
					lock(childLock)
					unlock(parentLock)
				}
				parentLock = childLock
				cursor = *childSlot
				set = func(v Node) { *childSlot = v }
				depth++

			case NTypeLeaf, NTypeLeafInlined:
				set(appendDocAndReturn(ct, cursor, docID))
				unlock(parentLock)
				return

			default:
				unlock(parentLock)
				panic("art: Put reached an unrecognized node type")
			}
		}
	}
}

func appendDocAndReturn(ct *ConcurrentART, handle Node, docID uint64) Node {
	concurrentLeafAppend(ct, &handle, docID)
	return handle
}
