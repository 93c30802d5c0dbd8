package badger

import (
	"fmt"

	"github.com/poiesic/lexgraph/core"
)

// Key prefixes for stored data types
const (
	documentPrefix = "legdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}
