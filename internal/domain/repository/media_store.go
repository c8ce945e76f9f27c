package repository

import "context"

// MediaStore - blob storage for attachments
type MediaStore interface {
	// Store saves data and returns a public URL reference
	Store(ctx context.Context, data []byte, filename string) (string, error)

	Delete(ctx context.Context, ref string) error
}
