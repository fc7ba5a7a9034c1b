package binfmt

import (
	"fmt"
)

// Tables holds every section of a catalogue in id order
type Tables struct {
	Strings []string
	Artists []ArtistRecord
	Albums  []AlbumRecord
	Songs   []SongRecord
}

// EncodeCatalog lays out the tables behind a freshly computed header and
// returns the complete file contents.
func EncodeCatalog(t *Tables) ([]byte, error) {
	pool, err := EncodeStrings(t.Strings)
	if err != nil {
		return nil, fmt.Errorf("encode string table: %w", err)
	}

	h := EmptyHeader()
	h.SongCount = uint32(len(t.Songs))
	h.ArtistCount = uint32(len(t.Artists))
	h.AlbumCount = uint32(len(t.Albums))
	h.StringTableOffset = HeaderSize
	h.ArtistTableOffset = h.StringTableOffset + uint32(len(pool))
	h.AlbumTableOffset = h.ArtistTableOffset + uint32(len(t.Artists))*ArtistRecordSize
	h.SongTableOffset = h.AlbumTableOffset + uint32(len(t.Albums))*AlbumRecordSize

	total := int(h.SongTableOffset) + len(t.Songs)*SongRecordSize
	buf := make([]byte, 0, total)
	buf = append(buf, h.Encode()...)
	buf = append(buf, pool...)
	for _, a := range t.Artists {
		buf = append(buf, a.Encode()...)
	}
	for _, a := range t.Albums {
		buf = append(buf, a.Encode()...)
	}
	for _, s := range t.Songs {
		buf = append(buf, s.Encode()...)
	}
	return buf, nil
}

// DecodeCatalog parses a complete catalogue file. The header is validated
// before any table is touched, and every cross-reference must resolve to an
// in-bounds row. Nothing is returned on failure.
func DecodeCatalog(data []byte) (Header, *Tables, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	if err := h.Validate(int64(len(data))); err != nil {
		return Header{}, nil, err
	}

	t := &Tables{}
	t.Strings, err = DecodeStrings(data[h.StringTableOffset:h.ArtistTableOffset], int64(h.StringTableOffset))
	if err != nil {
		return Header{}, nil, err
	}
	nStrings := uint32(len(t.Strings))

	t.Artists = make([]ArtistRecord, h.ArtistCount)
	for i := range t.Artists {
		off := int(h.ArtistTableOffset) + i*ArtistRecordSize
		r, _ := DecodeArtistRecord(data[off : off+ArtistRecordSize])
		if r.NameID >= nStrings {
			return Header{}, nil, newCorruption("artist table", int64(off), ErrDanglingReference,
				"artist %d names string %d of %d", i, r.NameID, nStrings)
		}
		t.Artists[i] = r
	}

	t.Albums = make([]AlbumRecord, h.AlbumCount)
	for i := range t.Albums {
		off := int(h.AlbumTableOffset) + i*AlbumRecordSize
		r, _ := DecodeAlbumRecord(data[off : off+AlbumRecordSize])
		if r.NameID >= nStrings {
			return Header{}, nil, newCorruption("album table", int64(off), ErrDanglingReference,
				"album %d names string %d of %d", i, r.NameID, nStrings)
		}
		if r.ArtistID >= h.ArtistCount {
			return Header{}, nil, newCorruption("album table", int64(off), ErrDanglingReference,
				"album %d belongs to artist %d of %d", i, r.ArtistID, h.ArtistCount)
		}
		t.Albums[i] = r
	}

	t.Songs = make([]SongRecord, h.SongCount)
	for i := range t.Songs {
		off := int(h.SongTableOffset) + i*SongRecordSize
		r, _ := DecodeSongRecord(data[off : off+SongRecordSize])
		switch {
		case r.TitleID >= nStrings || r.PathID >= nStrings:
			return Header{}, nil, newCorruption("song table", int64(off), ErrDanglingReference,
				"song %d references string %d/%d of %d", i, r.TitleID, r.PathID, nStrings)
		case r.ArtistID >= h.ArtistCount:
			return Header{}, nil, newCorruption("song table", int64(off), ErrDanglingReference,
				"song %d belongs to artist %d of %d", i, r.ArtistID, h.ArtistCount)
		case r.AlbumID >= h.AlbumCount:
			return Header{}, nil, newCorruption("song table", int64(off), ErrDanglingReference,
				"song %d belongs to album %d of %d", i, r.AlbumID, h.AlbumCount)
		}
		t.Songs[i] = r
	}

	return h, t, nil
}
