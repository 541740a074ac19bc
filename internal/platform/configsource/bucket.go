package configsource

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/yungbote/tilegen-backend/internal/platform/gcp"
)

type objectReader interface {
	DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error)
	GetObjectAttrs(ctx context.Context, category gcp.BucketCategory, key string) (*gcp.ObjectAttrs, error)
}

// Bucket serves a document stored in the config bucket. The object's
// update time is the version token.
type Bucket struct {
	objects objectReader
	key     string
}

func NewBucket(objects objectReader, key string) *Bucket {
	return &Bucket{objects: objects, key: key}
}

func (b *Bucket) Name() string { return b.key }

func (b *Bucket) ReadAll(ctx context.Context) ([]byte, error) {
	rc, err := b.objects.DownloadFile(ctx, gcp.BucketCategoryConfig, b.key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", b.key, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.key, err)
	}
	return raw, nil
}

func (b *Bucket) Version(ctx context.Context) string {
	attrs, err := b.objects.GetObjectAttrs(ctx, gcp.BucketCategoryConfig, b.key)
	if err != nil || attrs == nil || attrs.Updated.IsZero() {
		return "0"
	}
	return strconv.FormatInt(attrs.Updated.UnixMilli(), 10)
}
