package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	blobManifestPrefix = "blob:"
	blobPartPrefix     = "part:"
	blobGenerationSeq  = "blobgenseq"
)

// makeManifestKey generates the key holding a blob's manifest.
// Format: prefix + key
func makeManifestKey(key string) []byte {
	return []byte(blobManifestPrefix + key)
}

// makePartKey generates the key for one part of one blob generation.
// Format: prefix + key + 0x00 + generation + index
func makePartKey(key string, generation uint64, index int) []byte {
	prefixSize := len(blobPartPrefix) + len(key) + 1
	buf := make([]byte, prefixSize+12) // 8 bytes for generation + 4 bytes for index
	offset := copy(buf, blobPartPrefix)
	offset += copy(buf[offset:], key)
	buf[offset] = 0
	offset++
	// Write in BigEndian order so parts sort by generation then index
	binary.BigEndian.PutUint64(buf[offset:], generation)
	offset += 8
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}
