package retention

import "encoding/binary"

// Pebble keyspace for one retention's database (byte-wise lexicographically
// sortable):
//
//	meta
//	batch/{batchId_be8}

var (
	metaKey  = []byte("meta")
	batchSeg = []byte("batch/")
)

func batchKey(id uint64) []byte {
	k := make([]byte, 0, len(batchSeg)+8)
	k = append(k, batchSeg...)
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], id)
	return append(k, idBuf[:]...)
}
