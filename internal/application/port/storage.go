package port

import "context"

// ImageStorage stores rejection evidence files. Returned paths are opaque handles.
type ImageStorage interface {
	Save(ctx context.Context, fichaID int64, originalName string, content []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
