package emu

import (
	"encoding/binary"
	"io"
)

// LoadCodeImage reads a little-endian binary word stream into a code
// image, the same layout asreti/enchex produce and emreti.c's
// "fread(&word, ...)" loop consumes one word at a time. A partial
// trailing group of fewer than 4 bytes is silently dropped, matching
// spec.md section 6's "length determined by fread unit count": unlike
// decbin, the emulator's loader never treats a truncated file as a
// parse error.
func LoadCodeImage(r io.Reader) ([]uint32, error) {
	var words []uint32
	var buf [4]byte
	for {
		_, err := io.ReadFull(r, buf[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return words, nil
		}
		if err != nil {
			return nil, err
		}
		words = append(words, binary.LittleEndian.Uint32(buf[:]))
	}
}

// LoadDataImage reads a little-endian binary word stream into m
// starting at address 0, marking each word valid, matching emreti.c's
// data file load.
func LoadDataImage(m *Memory, r io.Reader) error {
	words, err := LoadCodeImage(r)
	if err != nil {
		return err
	}
	for addr, word := range words {
		m.Write(uint32(addr), word)
	}
	return nil
}
