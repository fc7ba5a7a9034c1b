package binfmt

import (
	"encoding/binary"
)

// Fixed record widths
const (
	ArtistRecordSize = 8
	AlbumRecordSize  = 16
	SongRecordSize   = 24

	songFlagsOffset = 20
)

// Song flag values
const (
	FlagActive  uint8 = 0x00
	FlagDeleted uint8 = 0x01
)

// ArtistRecord is one row of the artist table.
//
//	0x00  4  name_string_id
//	0x04  4  reserved
type ArtistRecord struct {
	NameID uint32
}

// Encode encodes the record to exactly ArtistRecordSize bytes
func (r ArtistRecord) Encode() []byte {
	buf := make([]byte, ArtistRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.NameID)
	return buf
}

// DecodeArtistRecord decodes one artist row
func DecodeArtistRecord(data []byte) (ArtistRecord, error) {
	if len(data) < ArtistRecordSize {
		return ArtistRecord{}, newCorruption("artist record", -1, ErrTruncated, "%d bytes", len(data))
	}
	return ArtistRecord{NameID: binary.LittleEndian.Uint32(data[0:4])}, nil
}

// AlbumRecord is one row of the album table.
//
//	0x00  4  name_string_id
//	0x04  4  artist_id
//	0x08  2  year
//	0x0A  6  reserved
type AlbumRecord struct {
	NameID   uint32
	ArtistID uint32
	Year     uint16
}

// Encode encodes the record to exactly AlbumRecordSize bytes
func (r AlbumRecord) Encode() []byte {
	buf := make([]byte, AlbumRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.NameID)
	binary.LittleEndian.PutUint32(buf[4:8], r.ArtistID)
	binary.LittleEndian.PutUint16(buf[8:10], r.Year)
	return buf
}

// DecodeAlbumRecord decodes one album row
func DecodeAlbumRecord(data []byte) (AlbumRecord, error) {
	if len(data) < AlbumRecordSize {
		return AlbumRecord{}, newCorruption("album record", -1, ErrTruncated, "%d bytes", len(data))
	}
	return AlbumRecord{
		NameID:   binary.LittleEndian.Uint32(data[0:4]),
		ArtistID: binary.LittleEndian.Uint32(data[4:8]),
		Year:     binary.LittleEndian.Uint16(data[8:10]),
	}, nil
}

// SongRecord is one row of the song table.
//
//	0x00  4  title_string_id
//	0x04  4  artist_id
//	0x08  4  album_id
//	0x0C  4  path_string_id
//	0x10  2  track_number
//	0x12  2  duration_sec
//	0x14  1  flags
//	0x15  3  reserved
type SongRecord struct {
	TitleID     uint32
	ArtistID    uint32
	AlbumID     uint32
	PathID      uint32
	TrackNumber uint16
	DurationSec uint16
	Flags       uint8
}

// Deleted reports whether the row has been soft-deleted
func (r SongRecord) Deleted() bool {
	return r.Flags&FlagDeleted != 0
}

// Active reports whether the row is live
func (r SongRecord) Active() bool {
	return !r.Deleted()
}

// Encode encodes the record to exactly SongRecordSize bytes
func (r SongRecord) Encode() []byte {
	buf := make([]byte, SongRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.TitleID)
	binary.LittleEndian.PutUint32(buf[4:8], r.ArtistID)
	binary.LittleEndian.PutUint32(buf[8:12], r.AlbumID)
	binary.LittleEndian.PutUint32(buf[12:16], r.PathID)
	binary.LittleEndian.PutUint16(buf[16:18], r.TrackNumber)
	binary.LittleEndian.PutUint16(buf[18:20], r.DurationSec)
	buf[songFlagsOffset] = r.Flags
	return buf
}

// DecodeSongRecord decodes one song row
func DecodeSongRecord(data []byte) (SongRecord, error) {
	if len(data) < SongRecordSize {
		return SongRecord{}, newCorruption("song record", -1, ErrTruncated, "%d bytes", len(data))
	}
	return SongRecord{
		TitleID:     binary.LittleEndian.Uint32(data[0:4]),
		ArtistID:    binary.LittleEndian.Uint32(data[4:8]),
		AlbumID:     binary.LittleEndian.Uint32(data[8:12]),
		PathID:      binary.LittleEndian.Uint32(data[12:16]),
		TrackNumber: binary.LittleEndian.Uint16(data[16:18]),
		DurationSec: binary.LittleEndian.Uint16(data[18:20]),
		Flags:       data[songFlagsOffset],
	}, nil
}
