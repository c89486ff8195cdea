package storage

import "context"

// MediaStore abstracts the object store holding uploaded card media.
// Objects are namespaced by card ID; re-uploading the same file name
// overwrites (upsert semantics).
type MediaStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, cardID, fileName string, data []byte) (string, error)
	// DeleteAll removes every object under the card's prefix and returns
	// how many were removed. Missing prefixes are not an error.
	DeleteAll(ctx context.Context, cardID string) (int, error)
}
