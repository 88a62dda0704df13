package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/jobmatch/core"
)

// Key prefixes for different data types
const (
	listingPrefix      = "joblst"
	listingOwnerPrefix = "joblsto"
	listingIDSeq       = "joblstseq"
	profilePrefix      = "prfrec"
	profileOwnerPrefix = "prfown"
	profileIDSeq       = "prfrecseq"
	termPrefix         = "trmrec"
	embeddingPrefix    = "embrec"
)

// makeListingKey generates a key for a listing by ID.
func makeListingKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", listingPrefix, id))
}

// makeListingOwnerKey generates a composite key for the owner index.
// Format: prefix:ownerID:listingID
func makeListingOwnerKey(ownerID, listingID core.ID) []byte {
	prefix := []byte(listingOwnerPrefix + ":")
	buf := make([]byte, len(prefix)+16) // 8 bytes for ownerID + 8 bytes for listingID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(listingID))
	return buf
}

// makePartialListingOwnerKey generates a partial key for owner queries.
// Format: prefix:ownerID
func makePartialListingOwnerKey(ownerID core.ID) []byte {
	prefix := []byte(listingOwnerPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	return buf
}

// makeProfileKey generates a key for a profile by ID.
func makeProfileKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", profilePrefix, id))
}

// makeProfileOwnerKey generates the key mapping an owner to their profile ID.
func makeProfileOwnerKey(ownerID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", profileOwnerPrefix, ownerID))
}

// makeTermKey generates a key for a taxonomy term.
// Format: prefix:kind:id
func makeTermKey(kind core.TermKind, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", termPrefix, kind, id))
}

// makeTermKindPrefix generates the prefix shared by all terms of a kind.
func makeTermKindPrefix(kind core.TermKind) []byte {
	return []byte(fmt.Sprintf("%s:%s:", termPrefix, kind))
}

// makeEmbeddingKey generates a key for a cached embedding.
// Format: prefix:kind:id
func makeEmbeddingKey(ref core.EntityRef) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", embeddingPrefix, ref.Kind, ref.Id))
}
