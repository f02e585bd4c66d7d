package art

import (
	"encoding/binary"
	"fmt"
)

// blockSize is the on-disk unit every serialized node occupies, regardless
// of its actual encoded length; Node256's worst case (a type byte, a count,
// and 256 eight-byte child words) comfortably fits inside one block.
const blockSize = 4096

// blockWriter accumulates serialized node blocks in sequence, assigning
// each one the next block id in the index file.
type blockWriter struct {
	blocks [][]byte
}

func (w *blockWriter) write(payload []byte) (BlockPointer, error) {
	if len(payload) > blockSize {
		return BlockPointer{}, fmt.Errorf("art: serialized node exceeds block size (%d > %d)", len(payload), blockSize)
	}
	block := make([]byte, blockSize)
	copy(block, payload)
	id := int64(len(w.blocks))
	w.blocks = append(w.blocks, block)
	return BlockPointer{BlockID: id, Offset: 0}, nil
}

// Serialize performs a post-order walk of the whole tree, writing each
// node's on-disk encoding to a fresh block (children before parents, so a
// parent's block can embed its children's now-final block pointers as
// plain 8-byte handle values) and rewrites the in-memory tree in place:
// every node it touches is freed from its slab and replaced by a
// NTypeLeafInlined-shaped or serialized Node handle, so after Serialize
// returns the only memory still live in the slabs is whatever a concurrent
// caller inserted in the meantime.
func (t *ART) Serialize() error {
	if !t.opened {
		return fmt.Errorf("art: Serialize requires a tree opened via Open")
	}

	w := &blockWriter{}
	if err := serializeAndReplace(t, &t.root, w); err != nil {
		return err
	}

	size := int64(len(w.blocks)) * blockSize
	if err := t.indexFile.Truncate(size); err != nil {
		return fmt.Errorf("art: truncating index file: %w", err)
	}

	if len(w.blocks) > 0 {
		m, err := Map(t.indexFile, int(size))
		if err != nil {
			return fmt.Errorf("art: mapping index file for serialize: %w", err)
		}
		for i, block := range w.blocks {
			copy(m[int64(i)*blockSize:], block)
		}
		if err := m.Flush(); err != nil {
			return fmt.Errorf("art: flushing serialized blocks: %w", err)
		}
		if old, ok := t.data.Load().(MMap); ok && old != nil {
			if err := old.Unmap(); err != nil {
				return fmt.Errorf("art: unmapping stale index mapping: %w", err)
			}
		}
		t.data.Store(m)
	}

	return t.writeMeta()
}

// writeMeta persists the root handle and the prefix allocator's buffer
// count. Deserialize reads back only the root handle; the buffer count is
// written but not consumed. It does not persist a full per-type allocator descriptor (buffer counts,
// bitmaps, live-slot counts for every node kind) the way the reference
// metadata format does, because deserializeNode always allocates a fresh
// slab slot on fault rather than replaying a bitmap — the descriptors would
// be write-only, never read back. See DESIGN.md for the full reasoning.
func (t *ART) writeMeta() error {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.root))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(t.allocators.prefix.buffers)))
	if err := t.metaFile.Truncate(int64(len(buf))); err != nil {
		return fmt.Errorf("art: truncating meta file: %w", err)
	}
	if _, err := t.metaFile.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("art: writing meta file: %w", err)
	}
	return nil
}

// Deserialize reloads the root handle written by a prior Serialize. The
// tree returned is mostly empty on the Go heap: almost every node still
// lives in the index file and is faulted in lazily by Get/Put as they walk
// past a serialized handle (see ART.loadSerialized).
func Deserialize(opts Opts) (*ART, error) {
	t, err := Open(opts)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 16)
	n, err := t.metaFile.ReadAt(buf, 0)
	if err != nil && n < 8 {
		return t, nil // freshly created meta file, nothing to reload
	}

	t.root = Node(binary.LittleEndian.Uint64(buf[0:8]))

	if info, statErr := t.indexFile.Stat(); statErr == nil && info.Size() > 0 {
		if m, mapErr := Map(t.indexFile, int(info.Size())); mapErr == nil {
			t.data.Store(m)
		}
	}

	return t, nil
}

func serializeAndReplace(t *ART, handle *Node, w *blockWriter) error {
	if !handle.IsSet() || handle.IsSerialized() || handle.GetType() == NTypeLeafInlined {
		return nil
	}

	switch handle.GetType() {
	case NTypePrefix:
		n := t.allocators.prefix.Get(*handle)
		if err := serializeAndReplace(t, &n.Next, w); err != nil {
			return err
		}
		bp, err := w.write(encodePrefixBlock(n))
		if err != nil {
			return err
		}
		t.allocators.prefix.Free(*handle)
		*handle = serializedWithType(bp, NTypePrefix)

	case NTypeLeaf:
		n := t.allocators.leaf.Get(*handle)
		if err := serializeAndReplace(t, &n.Next, w); err != nil {
			return err
		}
		bp, err := w.write(encodeLeafBlock(n))
		if err != nil {
			return err
		}
		t.allocators.leaf.Free(*handle)
		*handle = serializedWithType(bp, NTypeLeaf)

	case NTypeNode4:
		n := t.allocators.node4.Get(*handle)
		for i := uint8(0); i < n.Count; i++ {
			if err := serializeAndReplace(t, &n.Children[i], w); err != nil {
				return err
			}
		}
		bp, err := w.write(encodeNode4Block(n))
		if err != nil {
			return err
		}
		t.allocators.node4.Free(*handle)
		*handle = serializedWithType(bp, NTypeNode4)

	case NTypeNode16:
		n := t.allocators.node16.Get(*handle)
		for i := uint8(0); i < n.Count; i++ {
			if err := serializeAndReplace(t, &n.Children[i], w); err != nil {
				return err
			}
		}
		bp, err := w.write(encodeNode16Block(n))
		if err != nil {
			return err
		}
		t.allocators.node16.Free(*handle)
		*handle = serializedWithType(bp, NTypeNode16)

	case NTypeNode48:
		n := t.allocators.node48.Get(*handle)
		for b := 0; b < 256; b++ {
			idx := n.ChildIndex[b]
			if idx != EmptyMarker {
				if err := serializeAndReplace(t, &n.Children[idx], w); err != nil {
					return err
				}
			}
		}
		bp, err := w.write(encodeNode48Block(n))
		if err != nil {
			return err
		}
		t.allocators.node48.Free(*handle)
		*handle = serializedWithType(bp, NTypeNode48)

	case NTypeNode256:
		n := t.allocators.node256.Get(*handle)
		for b := 0; b < 256; b++ {
			if n.Children[b].IsSet() {
				if err := serializeAndReplace(t, &n.Children[b], w); err != nil {
					return err
				}
			}
		}
		bp, err := w.write(encodeNode256Block(n))
		if err != nil {
			return err
		}
		t.allocators.node256.Free(*handle)
		*handle = serializedWithType(bp, NTypeNode256)

	default:
		return fmt.Errorf("art: cannot serialize node type %s", handle.GetType())
	}

	return nil
}

// serializedWithType builds a serialized handle that still carries its
// original NType in the tag bits, alongside the block pointer packed into
// the low 56 bits, so deserializeNode knows which decoder to run without
// needing to consult the block itself.
func serializedWithType(bp BlockPointer, nt NType) Node {
	n := NewSerializedNode(bp)
	return n | Node(uint64(nt)<<shiftType)
}

func encodePrefixBlock(n *prefixNode) []byte {
	buf := make([]byte, 1+1+PrefixSize+8)
	buf[0] = byte(NTypePrefix)
	buf[1] = n.Count
	copy(buf[2:2+PrefixSize], n.Data[:])
	binary.LittleEndian.PutUint64(buf[2+PrefixSize:], uint64(n.Next))
	return buf
}

func encodeLeafBlock(n *leafNode) []byte {
	buf := make([]byte, 1+1+LeafSize*8+8)
	buf[0] = byte(NTypeLeaf)
	buf[1] = n.Count
	for i := 0; i < LeafSize; i++ {
		binary.LittleEndian.PutUint64(buf[2+i*8:], n.RowIDs[i])
	}
	binary.LittleEndian.PutUint64(buf[2+LeafSize*8:], uint64(n.Next))
	return buf
}

func encodeNode4Block(n *node4) []byte {
	buf := make([]byte, 1+1+Node4Capacity+Node4Capacity*8)
	buf[0] = byte(NTypeNode4)
	buf[1] = n.Count
	copy(buf[2:2+Node4Capacity], n.Key[:])
	off := 2 + Node4Capacity
	for i := 0; i < Node4Capacity; i++ {
		binary.LittleEndian.PutUint64(buf[off+i*8:], uint64(n.Children[i]))
	}
	return buf
}

func encodeNode16Block(n *node16) []byte {
	buf := make([]byte, 1+1+Node16Capacity+Node16Capacity*8)
	buf[0] = byte(NTypeNode16)
	buf[1] = n.Count
	copy(buf[2:2+Node16Capacity], n.Key[:])
	off := 2 + Node16Capacity
	for i := 0; i < Node16Capacity; i++ {
		binary.LittleEndian.PutUint64(buf[off+i*8:], uint64(n.Children[i]))
	}
	return buf
}

func encodeNode48Block(n *node48) []byte {
	buf := make([]byte, 1+1+256+Node48Capacity*8)
	buf[0] = byte(NTypeNode48)
	buf[1] = n.Count
	copy(buf[2:2+256], n.ChildIndex[:])
	off := 2 + 256
	for i := 0; i < Node48Capacity; i++ {
		binary.LittleEndian.PutUint64(buf[off+i*8:], uint64(n.Children[i]))
	}
	return buf
}

func encodeNode256Block(n *node256) []byte {
	buf := make([]byte, 1+2+Node256Capacity*8)
	buf[0] = byte(NTypeNode256)
	binary.LittleEndian.PutUint16(buf[1:3], n.Count)
	off := 3
	for i := 0; i < Node256Capacity; i++ {
		binary.LittleEndian.PutUint64(buf[off+i*8:], uint64(n.Children[i]))
	}
	return buf
}

// readBlock returns bp's block, preferring the mmap'd view of the index
// file set up by Serialize/Deserialize over a fresh ReadAt syscall — once
// a tree has been through one serialize/reload cycle every subsequent
// fault reads straight out of the page cache mapping instead.
func (t *ART) readBlock(blockID int64) ([]byte, error) {
	if m, ok := t.data.Load().(MMap); ok && m != nil {
		start := blockID * blockSize
		if start >= 0 && start+blockSize <= int64(len(m)) {
			return m[start : start+blockSize], nil
		}
	}

	block := make([]byte, blockSize)
	if _, err := t.indexFile.ReadAt(block, blockID*blockSize); err != nil {
		return nil, fmt.Errorf("art: reading block %d: %w", blockID, err)
	}
	return block, nil
}

// deserializeNode faults a single on-disk node back onto the heap: it
// reads bp's block, allocates a fresh slab slot of the type the block's
// header byte names, decodes the block into it, and returns the resulting
// live handle. Child references inside the decoded node are left exactly
// as stored — if they are themselves serialized handles, they stay that
// way until something walks into them.
func (t *ART) deserializeNode(bp BlockPointer) (Node, error) {
	if !bp.IsValid() {
		return 0, fmt.Errorf("art: deserializeNode on an invalid block pointer")
	}

	block, err := t.readBlock(bp.BlockID)
	if err != nil {
		return 0, err
	}

	switch NType(block[0]) {
	case NTypePrefix:
		handle, n := t.allocators.prefix.New(NTypePrefix)
		n.Count = block[1]
		copy(n.Data[:], block[2:2+PrefixSize])
		n.Next = Node(binary.LittleEndian.Uint64(block[2+PrefixSize:]))
		return handle, nil

	case NTypeLeaf:
		handle, n := t.allocators.leaf.New(NTypeLeaf)
		n.Count = block[1]
		for i := 0; i < LeafSize; i++ {
			n.RowIDs[i] = binary.LittleEndian.Uint64(block[2+i*8:])
		}
		n.Next = Node(binary.LittleEndian.Uint64(block[2+LeafSize*8:]))
		return handle, nil

	case NTypeNode4:
		handle, n := t.allocators.node4.New(NTypeNode4)
		n.Count = block[1]
		copy(n.Key[:], block[2:2+Node4Capacity])
		off := 2 + Node4Capacity
		for i := 0; i < Node4Capacity; i++ {
			n.Children[i] = Node(binary.LittleEndian.Uint64(block[off+i*8:]))
		}
		return handle, nil

	case NTypeNode16:
		handle, n := t.allocators.node16.New(NTypeNode16)
		n.Count = block[1]
		copy(n.Key[:], block[2:2+Node16Capacity])
		off := 2 + Node16Capacity
		for i := 0; i < Node16Capacity; i++ {
			n.Children[i] = Node(binary.LittleEndian.Uint64(block[off+i*8:]))
		}
		return handle, nil

	case NTypeNode48:
		handle, n := t.allocators.node48.New(NTypeNode48)
		n.Count = block[1]
		copy(n.ChildIndex[:], block[2:2+256])
		off := 2 + 256
		for i := 0; i < Node48Capacity; i++ {
			n.Children[i] = Node(binary.LittleEndian.Uint64(block[off+i*8:]))
		}
		return handle, nil

	case NTypeNode256:
		handle, n := t.allocators.node256.New(NTypeNode256)
		n.Count = binary.LittleEndian.Uint16(block[1:3])
		off := 3
		for i := 0; i < Node256Capacity; i++ {
			n.Children[i] = Node(binary.LittleEndian.Uint64(block[off+i*8:]))
		}
		return handle, nil

	default:
		return 0, fmt.Errorf("art: unknown serialized node type byte %d", block[0])
	}
}
