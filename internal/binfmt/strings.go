package binfmt

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// EncodeStrings encodes the string pool section: for each string a u16 byte
// length followed by the raw UTF-8 bytes, in id order.
func EncodeStrings(strs []string) ([]byte, error) {
	size := 0
	for i, s := range strs {
		if len(s) > MaxStringLen {
			return nil, fmt.Errorf("string %d is %d bytes, limit is %d", i, len(s), MaxStringLen)
		}
		size += 2 + len(s)
	}

	buf := make([]byte, 0, size)
	for _, s := range strs {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
		buf = append(buf, s...)
	}
	return buf, nil
}

// DecodeStrings decodes a string pool section. The entries must fill the
// section exactly; base is the section's file offset, used for error reporting.
func DecodeStrings(data []byte, base int64) ([]string, error) {
	var strs []string
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 2 {
			return nil, newCorruption("string table", base+int64(pos), ErrTruncated, "dangling length prefix")
		}
		n := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		start := pos + 2
		if start+n > len(data) {
			return nil, newCorruption("string table", base+int64(pos), ErrTruncated,
				"string %d needs %d bytes, %d left", len(strs), n, len(data)-start)
		}
		raw := data[start : start+n]
		if !utf8.Valid(raw) {
			return nil, newCorruption("string table", base+int64(start), ErrInvalidUTF8, "string %d", len(strs))
		}
		strs = append(strs, string(raw))
		pos = start + n
	}
	return strs, nil
}
