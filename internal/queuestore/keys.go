package queuestore

import "encoding/binary"

// Key layout:
//
//	qmeta/{name}           -> serialized queue settings (existence marker)
//	q/{name}/job/{id BE8}  -> framed job record, FIFO by id
//	meta/last_job_id       -> BE8 global job id counter
//
// Settings live under their own prefix so listing queues never scans job
// records, whose BE8 id bytes are arbitrary.
const (
	queuePrefix  = "q/"
	metaPrefix   = "qmeta/"
	jobSegment   = "/job/"
	lastJobIDKey = "meta/last_job_id"
)

// queueMetaKey returns the settings key for a queue.
func queueMetaKey(name string) []byte {
	return []byte(metaPrefix + name)
}

// jobKey returns the record key for a job id within a queue.
func jobKey(name string, id uint64) []byte {
	prefix := queuePrefix + name + jobSegment
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

// jobPrefix returns the scan prefix for a queue's job records.
func jobPrefix(name string) []byte {
	return []byte(queuePrefix + name + jobSegment)
}

// jobIDFromKey extracts the job id from a job record key.
func jobIDFromKey(key []byte) (uint64, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(key)-8:]), true
}

// keyUpperBound returns an exclusive upper bound for prefix scans.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix)+1)
	copy(end, prefix)
	end[len(prefix)] = 0xFF
	return end
}
