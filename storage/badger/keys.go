package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/pdfqa/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentDatePrefix = "docrecd"
	currentDocumentKey = "doccur"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the ingestion date index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(timestamp time.Time, id core.ID) []byte {
	buf := makePartialDocumentDateKey(timestamp)
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makePartialDocumentDateKey generates a partial key for date range scans.
// Format: prefix:timestamp
func makePartialDocumentDateKey(timestamp time.Time) []byte {
	prefix := documentDatePrefix + ":"
	buf := make([]byte, len(prefix), len(prefix)+16)
	copy(buf, prefix)
	// BigEndian so lexicographic order matches time order
	return binary.BigEndian.AppendUint64(buf, uint64(timestamp.UnixMicro()))
}
