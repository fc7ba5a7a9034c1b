package binfmt

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Playlist format constants
const (
	PlaylistVersion    uint32 = 1
	PlaylistHeaderSize        = 14
)

// PlaylistMagic identifies a playlist file
var PlaylistMagic = [4]byte{'P', 'L', 'Y', '1'}

// PlaylistHeader is the fixed part of a playlist file.
//
//	0x00  4  magic ("PLY1")
//	0x04  4  version
//	0x08  4  song_count
//	0x0C  2  name_length
//
// The name bytes follow the header, then song_count u32 song ids.
type PlaylistHeader struct {
	Magic      [4]byte
	Version    uint32
	SongCount  uint32
	NameLength uint16
}

// Encode encodes the header to exactly PlaylistHeaderSize bytes
func (h PlaylistHeader) Encode() []byte {
	buf := make([]byte, PlaylistHeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.SongCount)
	binary.LittleEndian.PutUint16(buf[12:14], h.NameLength)
	return buf
}

// DecodePlaylistHeader decodes and checks the magic and version
func DecodePlaylistHeader(data []byte) (PlaylistHeader, error) {
	if len(data) < PlaylistHeaderSize {
		return PlaylistHeader{}, newCorruption("playlist header", 0, ErrTruncated,
			"need %d bytes, have %d", PlaylistHeaderSize, len(data))
	}
	var h PlaylistHeader
	copy(h.Magic[:], data[0:4])
	if h.Magic != PlaylistMagic {
		return PlaylistHeader{}, newCorruption("playlist header", 0, ErrBadMagic, "got %q", h.Magic[:])
	}
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	if h.Version != PlaylistVersion {
		return PlaylistHeader{}, newCorruption("playlist header", 4, ErrUnsupportedVersion, "version %d", h.Version)
	}
	h.SongCount = binary.LittleEndian.Uint32(data[8:12])
	h.NameLength = binary.LittleEndian.Uint16(data[12:14])
	return h, nil
}

// EncodePlaylist encodes a complete playlist file
func EncodePlaylist(name string, songIDs []uint32) ([]byte, error) {
	if len(name) > MaxStringLen {
		return nil, fmt.Errorf("playlist name is %d bytes, limit is %d", len(name), MaxStringLen)
	}
	h := PlaylistHeader{
		Magic:      PlaylistMagic,
		Version:    PlaylistVersion,
		SongCount:  uint32(len(songIDs)),
		NameLength: uint16(len(name)),
	}
	buf := make([]byte, 0, PlaylistHeaderSize+len(name)+4*len(songIDs))
	buf = append(buf, h.Encode()...)
	buf = append(buf, name...)
	for _, id := range songIDs {
		buf = binary.LittleEndian.AppendUint32(buf, id)
	}
	return buf, nil
}

// DecodePlaylist decodes a complete playlist file. Trailing bytes beyond the
// declared song ids are ignored.
func DecodePlaylist(data []byte) (string, []uint32, error) {
	h, err := DecodePlaylistHeader(data)
	if err != nil {
		return "", nil, err
	}

	nameEnd := PlaylistHeaderSize + int(h.NameLength)
	if nameEnd > len(data) {
		return "", nil, newCorruption("playlist name", PlaylistHeaderSize, ErrTruncated,
			"name needs %d bytes, have %d", h.NameLength, len(data)-PlaylistHeaderSize)
	}
	nameBytes := data[PlaylistHeaderSize:nameEnd]
	if !utf8.Valid(nameBytes) {
		return "", nil, newCorruption("playlist name", PlaylistHeaderSize, ErrInvalidUTF8, "")
	}

	need := int64(h.SongCount) * 4
	if int64(len(data)-nameEnd) < need {
		return "", nil, newCorruption("playlist songs", int64(nameEnd), ErrTruncated,
			"%d ids need %d bytes, have %d", h.SongCount, need, len(data)-nameEnd)
	}
	ids := make([]uint32, h.SongCount)
	for i := range ids {
		off := nameEnd + 4*i
		ids[i] = binary.LittleEndian.Uint32(data[off : off+4])
	}
	return string(nameBytes), ids, nil
}
