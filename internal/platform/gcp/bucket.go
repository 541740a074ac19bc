package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryTile   BucketCategory = "tile"
	BucketCategoryConfig BucketCategory = "config"
)

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	GetObjectAttrs(ctx context.Context, category BucketCategory, key string) (*ObjectAttrs, error)
	GetPublicURL(category BucketCategory, key string) string
}

type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
	ETag        string
}

type bucketConfig struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	cfg           ObjectStorageConfig
	tileBucket    bucketConfig
	configBucket  bucketConfig
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Object storage initialized",
		"mode", cfg.Mode,
		"emulator_host", cfg.EmulatorHost,
		"public_base_url", cfg.PublicBaseURL,
		"tile_bucket", cfg.TileBucket,
		"config_bucket", cfg.ConfigBucket,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		cfg:           cfg,
		tileBucket:    bucketConfig{name: cfg.TileBucket, cdnDomain: cfg.TileCDNDomain},
		configBucket:  bucketConfig{name: cfg.ConfigBucket},
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		// the storage client reads the emulator endpoint from the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	return storage.NewClient(ctx, clientOptions(cfg)...)
}

func (bs *bucketService) getBucketConfig(category BucketCategory) (bucketConfig, error) {
	switch category {
	case BucketCategoryTile:
		return bs.tileBucket, nil
	case BucketCategoryConfig:
		if bs.configBucket.name == "" {
			return bucketConfig{}, fmt.Errorf("config bucket not configured")
		}
		return bs.configBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".yaml"), strings.HasSuffix(s, ".yml"):
		return "application/yaml"
	default:
		return ""
	}
}

// readCloserWithCancel keeps the download context alive until the caller
// closes the reader.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)

	if bs.cfg.IsEmulatorMode() {
		resp, err := bs.emulatorGet(ctx2, bs.emulatorObjectURL(cfg.name, key, true))
		if err != nil {
			cancel()
			return nil, err
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	r, err := bs.storageClient.Bucket(cfg.name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", fs.ErrNotExist, cfg.name, key)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketService) GetObjectAttrs(ctx context.Context, category BucketCategory, key string) (*ObjectAttrs, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if bs.cfg.IsEmulatorMode() {
		resp, err := bs.emulatorGet(ctx2, bs.emulatorObjectURL(cfg.name, key, false))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		var payload struct {
			Size        string `json:"size"`
			ContentType string `json:"contentType"`
			Updated     string `json:"updated"`
			ETag        string `json:"etag"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode emulator attrs: %w", err)
		}
		size, _ := strconv.ParseInt(strings.TrimSpace(payload.Size), 10, 64)
		updated, _ := time.Parse(time.RFC3339, strings.TrimSpace(payload.Updated))
		return &ObjectAttrs{Size: size, ContentType: payload.ContentType, Updated: updated, ETag: payload.ETag}, nil
	}

	attrs, err := bs.storageClient.Bucket(cfg.name).Object(key).Attrs(ctx2)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", fs.ErrNotExist, cfg.name, key)
		}
		return nil, fmt.Errorf("failed to fetch GCS object attrs: %w", err)
	}
	return &ObjectAttrs{
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
		ETag:        attrs.Etag,
	}, nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return key
	}
	return publicURL(bs.cfg, cfg, key)
}

func publicURL(storageCfg ObjectStorageConfig, cfg bucketConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	if storageCfg.IsEmulatorMode() {
		base := storageCfg.PublicBaseURL
		if base == "" {
			base = storageCfg.EmulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(cfg.name), url.PathEscape(key))
	}
	if storageCfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", storageCfg.PublicBaseURL, cfg.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}

func (bs *bucketService) emulatorObjectURL(bucket, key string, media bool) string {
	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", bs.cfg.EmulatorHost, url.PathEscape(bucket), url.PathEscape(key))
	if media {
		u += "?alt=media"
	}
	return u
}

func (bs *bucketService) emulatorGet(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed creating emulator request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed emulator request: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("emulator request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
