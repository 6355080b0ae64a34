// Package unpack decodes the huffman-packed frames returned by the trade
// market's list and bidding endpoints into their text payload.
//
// Frame layout (little endian):
//
//	u32 file_len, u32 zero, u32 char_count
//	char_count x { u32 frequency, u8 char, 3 pad bytes }
//	u32 packed_bits, u32 packed_bytes, u32 unpacked_bytes
//	packed_bytes of MSB-first code bits
package unpack

import (
	"bytes"
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Huffman implements market.Unpacker.
type Huffman struct{}

func (Huffman) Unpack(b []byte) (string, error) {
	return UnpackBytes(b)
}

func UnpackBytes(b []byte) (string, error) {
	return UnpackFrom(bytes.NewReader(b))
}

type node struct {
	c           byte
	freq        uint32
	left, right *node
}

func (n *node) leaf() bool { return n.left == nil && n.right == nil }

// nodeHeap orders by frequency only. Ties keep whatever position the sift
// leaves them in; the encoder builds its tree the same way, so the insertion
// order of the frequency table matters.
type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].freq < h[j].freq }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

type frequency struct {
	c    byte
	freq uint32
}

func buildTree(freqs []frequency) *node {
	h := &nodeHeap{}
	for _, f := range freqs {
		heap.Push(h, &node{c: f.c, freq: f.freq})
	}
	if h.Len() == 0 {
		return nil
	}
	for h.Len() > 1 {
		a := heap.Pop(h).(*node)
		b := heap.Pop(h).(*node)
		heap.Push(h, &node{freq: a.freq + b.freq, left: a, right: b})
	}
	return heap.Pop(h).(*node)
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readFrequencies(r io.Reader) ([]frequency, error) {
	var header [3]uint32 // file_len, zero, char_count
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	count := header[2]
	if count > 256 {
		return nil, fmt.Errorf("frequency table has %d entries", count)
	}

	freqs := make([]frequency, 0, count)
	for i := uint32(0); i < count; i++ {
		f, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read frequency %d: %w", i, err)
		}
		var entry [4]byte // char + 3 pad bytes
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return nil, fmt.Errorf("read symbol %d: %w", i, err)
		}
		freqs = append(freqs, frequency{c: entry[0], freq: f})
	}
	return freqs, nil
}

// UnpackFrom decodes one frame from r.
func UnpackFrom(r io.Reader) (string, error) {
	freqs, err := readFrequencies(r)
	if err != nil {
		return "", err
	}
	tree := buildTree(freqs)
	if tree == nil {
		return "", errors.New("empty frequency table")
	}

	var sizes [3]uint32 // packed_bits, packed_bytes, unpacked_bytes
	if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
		return "", fmt.Errorf("read sizes: %w", err)
	}
	packedBits, packedBytes, unpackedBytes := sizes[0], sizes[1], sizes[2]
	if uint64(packedBits) > uint64(packedBytes)*8 {
		return "", fmt.Errorf("%d bits do not fit in %d bytes", packedBits, packedBytes)
	}

	packed := make([]byte, packedBytes)
	if _, err := io.ReadFull(r, packed); err != nil {
		return "", fmt.Errorf("read packed data: %w", err)
	}

	// A one-symbol alphabet has no code bits
	if tree.leaf() {
		return string(bytes.Repeat([]byte{tree.c}, int(unpackedBytes))), nil
	}
	return decode(tree, packed, int(packedBits))
}

func decode(tree *node, packed []byte, bits int) (string, error) {
	out := make([]byte, 0, bits/4)
	pos := 0
	for pos < bits {
		n := tree
		for !n.leaf() {
			if pos >= bits {
				return "", fmt.Errorf("bitstream ends inside a code (unpacked=%q)", out)
			}
			bit := packed[pos/8]>>(7-uint(pos%8))&1 == 1
			pos++
			if bit {
				n = n.right
			} else {
				n = n.left
			}
			if n == nil {
				return "", fmt.Errorf("dead end in code tree (unpacked=%q)", out)
			}
		}
		out = append(out, n.c)
	}
	return string(out), nil
}
