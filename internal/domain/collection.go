package domain

import (
	"strings"

	"github.com/haierkeys/vault-link-index/pkg/code"
)

// CollectionKey addresses the edge set as <database>.<collection>.
type CollectionKey struct {
	Database   string
	Collection string
}

func (k CollectionKey) String() string {
	return k.Database + "." + k.Collection
}

// ParseCollectionKey splits on the first "." and requires both halves to be non-empty.
// The collection half may itself contain dots.
func ParseCollectionKey(s string) (CollectionKey, error) {
	db, coll, ok := strings.Cut(s, ".")
	if !ok || strings.TrimSpace(db) == "" || strings.TrimSpace(coll) == "" {
		return CollectionKey{}, code.ErrorInvalidCollection.WithSubject(s)
	}
	return CollectionKey{Database: db, Collection: coll}, nil
}
