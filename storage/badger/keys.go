package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	snapshotHeaderKey = "snaphdr"
	factRecordPrefix  = "factrec"
)

// makeGenerationPrefix generates the prefix shared by all records of one snapshot generation.
// Format: prefix:generation
func makeGenerationPrefix(generation uint64) []byte {
	prefix := factRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], generation)
	return buf
}

// makeFactRecordKey generates a composite key for a record within a generation.
// Format: prefix:generation:ordinal
func makeFactRecordKey(generation uint64, ordinal int) []byte {
	genPrefix := makeGenerationPrefix(generation)
	buf := make([]byte, len(genPrefix)+8)
	offset := copy(buf, genPrefix)
	// Ordinal keeps the records in the order they were saved
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}
