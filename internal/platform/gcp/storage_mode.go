package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

type ObjectStorageConfig struct {
	Mode          ObjectStorageMode
	EmulatorHost  string
	PublicBaseURL string
	TileBucket    string
	TileCDNDomain string
	ConfigBucket  string
	Credentials   string
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

// ResolveObjectStorageConfig fills in the mode from the raw setting. An
// empty mode with an emulator host set selects emulator mode.
func ResolveObjectStorageConfig(rawMode string, cfg ObjectStorageConfig) (ObjectStorageConfig, error) {
	cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")

	switch mode := ObjectStorageMode(strings.ToLower(strings.TrimSpace(rawMode))); mode {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
		} else {
			cfg.Mode = ObjectStorageModeGCS
		}
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, fmt.Errorf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", rawMode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	}
	return cfg, ValidateObjectStorageConfig(cfg)
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	if strings.TrimSpace(cfg.TileBucket) == "" {
		return fmt.Errorf("missing TILE_GCS_BUCKET_NAME")
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL", cfg.PublicBaseURL)
	}
	if !cfg.IsEmulatorMode() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ObjectStorageModeGCSEmulator)
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost)
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
