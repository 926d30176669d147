package queuestore

import (
	"encoding/binary"
	"hash/crc32"
)

// Job record: id(8B BE) | enqueued_ms(8B BE) | payload | crc32c(header|payload)

const recordHeaderLen = 16

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// encodeJobRecord frames a job payload with its id, enqueue timestamp, and a
// trailing checksum.
func encodeJobRecord(id uint64, enqueuedMs int64, payload []byte) []byte {
	out := make([]byte, 0, recordHeaderLen+len(payload)+4)
	var hb [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hb[0:8], id)
	binary.BigEndian.PutUint64(hb[8:16], uint64(enqueuedMs))
	out = append(out, hb[:]...)
	out = append(out, payload...)
	crc := crc32.Update(0, castagnoli, hb[:])
	crc = crc32.Update(crc, castagnoli, payload)
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], crc)
	out = append(out, cb[:]...)
	return out
}

type decodedRecord struct {
	ID         uint64
	EnqueuedMs int64
	Payload    []byte
}

// decodeJobRecord verifies the checksum and unpacks a job record.
func decodeJobRecord(b []byte) (decodedRecord, bool) {
	if len(b) < recordHeaderLen+4 {
		return decodedRecord{}, false
	}
	header := b[:recordHeaderLen]
	payload := b[recordHeaderLen : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return decodedRecord{}, false
	}
	return decodedRecord{
		ID:         binary.BigEndian.Uint64(header[0:8]),
		EnqueuedMs: int64(binary.BigEndian.Uint64(header[8:16])),
		Payload:    append([]byte(nil), payload...),
	}, true
}
