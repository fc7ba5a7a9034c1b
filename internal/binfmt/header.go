// Package binfmt encodes and decodes the jp3 on-disk formats.
//
// The catalogue (library.bin) is read byte-for-byte by the playback device,
// so every record has a fixed width and all integers are little-endian.
//
//	+------------------------+  0
//	| Header (40 bytes)      |
//	+------------------------+  string_table_offset
//	| String pool            |  u16 length + UTF-8 bytes, repeated
//	+------------------------+  artist_table_offset
//	| Artist table (8 B/row) |
//	+------------------------+  album_table_offset
//	| Album table (16 B/row) |
//	+------------------------+  song_table_offset
//	| Song table (24 B/row)  |
//	+------------------------+  EOF
//
// Reserved bytes are zero-filled on write and ignored on read.
package binfmt

import (
	"encoding/binary"
)

// Catalogue format constants
const (
	// CatalogVersion is the only catalogue version this package writes or reads
	CatalogVersion uint32 = 1

	// HeaderSize is the fixed size of the catalogue header
	HeaderSize = 40

	// MaxStringLen is the longest string the u16 length prefix can describe
	MaxStringLen = 0xFFFF
)

// CatalogMagic identifies a catalogue file
var CatalogMagic = [4]byte{'L', 'I', 'B', '1'}

// Header is the fixed-size catalogue header.
//
//	Offset  Size  Field
//	0x00    4     magic ("LIB1")
//	0x04    4     version
//	0x08    4     song_count
//	0x0C    4     artist_count
//	0x10    4     album_count
//	0x14    4     string_table_offset
//	0x18    4     artist_table_offset
//	0x1C    4     album_table_offset
//	0x20    4     song_table_offset
//	0x24    4     reserved
type Header struct {
	Magic             [4]byte
	Version           uint32
	SongCount         uint32
	ArtistCount       uint32
	AlbumCount        uint32
	StringTableOffset uint32
	ArtistTableOffset uint32
	AlbumTableOffset  uint32
	SongTableOffset   uint32
}

// EmptyHeader returns the header of a catalogue with no rows: all counts zero
// and every table starting right after the header.
func EmptyHeader() Header {
	return Header{
		Magic:             CatalogMagic,
		Version:           CatalogVersion,
		StringTableOffset: HeaderSize,
		ArtistTableOffset: HeaderSize,
		AlbumTableOffset:  HeaderSize,
		SongTableOffset:   HeaderSize,
	}
}

// Encode encodes the header to exactly HeaderSize bytes
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.SongCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.ArtistCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.AlbumCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.StringTableOffset)
	binary.LittleEndian.PutUint32(buf[24:28], h.ArtistTableOffset)
	binary.LittleEndian.PutUint32(buf[28:32], h.AlbumTableOffset)
	binary.LittleEndian.PutUint32(buf[32:36], h.SongTableOffset)
	// Reserved (4 bytes) - already zeroed
	return buf
}

// DecodeHeader decodes the header fields without checking them against a
// file length. Use Validate for the structural checks.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, newCorruption("header", 0, ErrTruncated, "need %d bytes, have %d", HeaderSize, len(data))
	}

	var h Header
	copy(h.Magic[:], data[0:4])
	if h.Magic != CatalogMagic {
		return Header{}, newCorruption("header", 0, ErrBadMagic, "got %q", h.Magic[:])
	}

	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.SongCount = binary.LittleEndian.Uint32(data[8:12])
	h.ArtistCount = binary.LittleEndian.Uint32(data[12:16])
	h.AlbumCount = binary.LittleEndian.Uint32(data[16:20])
	h.StringTableOffset = binary.LittleEndian.Uint32(data[20:24])
	h.ArtistTableOffset = binary.LittleEndian.Uint32(data[24:28])
	h.AlbumTableOffset = binary.LittleEndian.Uint32(data[28:32])
	h.SongTableOffset = binary.LittleEndian.Uint32(data[32:36])
	return h, nil
}

// Validate checks the section offsets and record counts against the length
// of the file the header was read from.
func (h Header) Validate(fileLen int64) error {
	if h.Version != CatalogVersion {
		return newCorruption("header", 4, ErrUnsupportedVersion, "version %d", h.Version)
	}

	offsets := []struct {
		name  string
		value uint32
	}{
		{"string table", h.StringTableOffset},
		{"artist table", h.ArtistTableOffset},
		{"album table", h.AlbumTableOffset},
		{"song table", h.SongTableOffset},
	}
	prev := int64(HeaderSize)
	for i, o := range offsets {
		off := int64(o.value)
		field := int64(20 + 4*i)
		if off < prev {
			return newCorruption("header", field, ErrBadOffset, "%s offset %d precedes %d", o.name, off, prev)
		}
		if off > fileLen {
			return newCorruption("header", field, ErrBadOffset, "%s offset %d past end of file (%d bytes)", o.name, off, fileLen)
		}
		prev = off
	}

	if got, want := int64(h.AlbumTableOffset-h.ArtistTableOffset), int64(h.ArtistCount)*ArtistRecordSize; got != want {
		return newCorruption("artist table", int64(h.ArtistTableOffset), ErrCountMismatch,
			"%d artists need %d bytes, section has %d", h.ArtistCount, want, got)
	}
	if got, want := int64(h.SongTableOffset-h.AlbumTableOffset), int64(h.AlbumCount)*AlbumRecordSize; got != want {
		return newCorruption("album table", int64(h.AlbumTableOffset), ErrCountMismatch,
			"%d albums need %d bytes, section has %d", h.AlbumCount, want, got)
	}
	if got, want := fileLen-int64(h.SongTableOffset), int64(h.SongCount)*SongRecordSize; got != want {
		return newCorruption("song table", int64(h.SongTableOffset), ErrCountMismatch,
			"%d songs need %d bytes, section has %d", h.SongCount, want, got)
	}
	return nil
}

// SongFlagOffset returns the absolute file offset of a song row's flag byte
func (h Header) SongFlagOffset(songID uint32) int64 {
	return int64(h.SongTableOffset) + int64(songID)*SongRecordSize + songFlagsOffset
}
