package region

import (
	"encoding/binary"
	"hash/crc32"

	"listalloc/internal/errs"
)

// header occupies the first headerSize bytes of every region's
// mapping, the same magic/version/length/crc32 layout
// core/header.go uses for its on-disk record headers, repurposed here
// to self-check a region's own reserved bookkeeping footprint instead
// of a stored key/value pair.
type header struct {
	Magic    uint32
	Ver      uint16
	_        uint16
	Capacity uint32
	CRC32    uint32
}

const (
	regionMagic   = uint32(0x5245474e) // "REGN"
	regionVersion = uint16(1)
	headerSize    = 4 + 2 + 2 + 4 + 4
)

// ErrCorruptHeader is returned by validateHeader when the reserved
// header bytes don't decode to a consistent magic/crc pair.
var ErrCorruptHeader = errs.ErrCorrupt

func encodeHeader(b []byte, h header) {
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint16(b[4:6], h.Ver)
	binary.LittleEndian.PutUint16(b[6:8], 0)
	binary.LittleEndian.PutUint32(b[8:12], h.Capacity)
	binary.LittleEndian.PutUint32(b[12:16], h.CRC32)
}

func decodeHeader(b []byte) header {
	return header{
		Magic:    binary.LittleEndian.Uint32(b[0:4]),
		Ver:      binary.LittleEndian.Uint16(b[4:6]),
		Capacity: binary.LittleEndian.Uint32(b[8:12]),
		CRC32:    binary.LittleEndian.Uint32(b[12:16]),
	}
}

func headerCRC(ver uint16, capacity uint32) uint32 {
	var tmp [2 + 4]byte
	binary.LittleEndian.PutUint16(tmp[0:2], ver)
	binary.LittleEndian.PutUint32(tmp[2:6], capacity)
	c := crc32.NewIEEE()
	_, _ = c.Write(tmp[:])
	return c.Sum32()
}

func (r *Region) writeHeader(capacity int) {
	h := header{
		Magic:    regionMagic,
		Ver:      regionVersion,
		Capacity: uint32(capacity),
	}
	h.CRC32 = headerCRC(h.Ver, h.Capacity)
	encodeHeader(r.data[:headerSize], h)
}

// ValidateHeader decodes the region's reserved header and reports
// whether its magic and checksum are internally consistent. It never
// fails in ordinary use; it exists so a caller that receives a region
// over a channel it doesn't fully trust (e.g. recovered from a pool)
// can check it hasn't been scribbled over.
func (r *Region) ValidateHeader() error {
	h := decodeHeader(r.data[:headerSize])
	if h.Magic != regionMagic {
		return ErrCorruptHeader
	}
	if h.CRC32 != headerCRC(h.Ver, h.Capacity) {
		return ErrCorruptHeader
	}
	return nil
}
