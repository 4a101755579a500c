package providers

import "context"

// ImageUploader stores an image with a third-party host
type ImageUploader interface {
	// Upload stores data and returns a stable public URL
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}
