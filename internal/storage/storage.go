package storage

import (
	"context"
)

// MediaStore uploads user media (avatars, covers) to a remote media host and
// returns an opaque public reference to the stored object.
type MediaStore interface {
	// UploadFile sends the file at localPath under the given key prefix and
	// returns the public URL of the stored object
	UploadFile(ctx context.Context, localPath string, keyPrefix string) (string, error)
}
