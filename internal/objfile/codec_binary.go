package objfile

// codec_binary.go implements the object file's binary wire format: a flat sequence of blocks,
// each <start:u16 BE><len:u16 BE><word:u16 BE>*, with no trailer. The loader tries SerializeText's
// format first and falls back to this one whenever the text parse fails.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/patt3/lc3core/internal/vm"
)

// SerializeBinary renders of's blocks in ascending address order as big-endian binary.
func SerializeBinary(of *ObjectFile) []byte {
	var buf bytes.Buffer

	for _, blk := range of.sortedBlocks() {
		header := make([]byte, 4)
		binary.BigEndian.PutUint16(header[0:2], uint16(blk.Start))
		binary.BigEndian.PutUint16(header[2:4], uint16(len(blk.Words)))
		buf.Write(header)

		for _, w := range blk.Words {
			var wb [2]byte
			binary.BigEndian.PutUint16(wb[:], uint16(w))
			buf.Write(wb[:])
		}
	}

	return buf.Bytes()
}

// DeserializeBinary parses bytes produced by SerializeBinary back into an ObjectFile.
func DeserializeBinary(data []byte) (*ObjectFile, error) {
	of := New()

	r := bytes.NewReader(data)

	for r.Len() > 0 {
		var header [4]byte

		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated block header", ErrOpcode)
		}

		start := vm.Word(binary.BigEndian.Uint16(header[0:2]))
		length := binary.BigEndian.Uint16(header[2:4])

		words := make([]vm.Word, length)

		for i := range words {
			var wb [2]byte

			if _, err := io.ReadFull(r, wb[:]); err != nil {
				return nil, fmt.Errorf("%w: truncated block at %s", ErrOpcode, start)
			}

			words[i] = vm.Word(binary.BigEndian.Uint16(wb[:]))
		}

		of.Blocks = append(of.Blocks, Block{Start: start, Words: words})
	}

	return of, nil
}
