package gcp

import "testing"

func TestResolveObjectStorageConfig(t *testing.T) {
	cases := []struct {
		name    string
		mode    string
		host    string
		want    ObjectStorageMode
		wantErr bool
	}{
		{name: "default gcs", mode: "", want: ObjectStorageModeGCS},
		{name: "emulator inferred from host", mode: "", host: "http://fake-gcs:4443/", want: ObjectStorageModeGCSEmulator},
		{name: "explicit emulator", mode: "GCS_EMULATOR", host: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator},
		{name: "emulator without host", mode: "gcs_emulator", wantErr: true},
		{name: "emulator bad host", mode: "gcs_emulator", host: "fake-gcs", wantErr: true},
		{name: "unknown mode", mode: "s3", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveObjectStorageConfig(tc.mode, ObjectStorageConfig{EmulatorHost: tc.host, TileBucket: "tiles"})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got cfg=%+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Mode != tc.want {
				t.Fatalf("mode: want=%q got=%q", tc.want, cfg.Mode)
			}
		})
	}
}

func TestResolveRequiresTileBucket(t *testing.T) {
	if _, err := ResolveObjectStorageConfig("gcs", ObjectStorageConfig{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestClientOptions(t *testing.T) {
	cases := []struct {
		name  string
		creds string
		want  int
	}{
		{"default credentials", "", 1},
		{"inline json", `{"type":"service_account"}`, 2},
		{"file path", "/etc/gcp/sa.json", 2},
	}
	for _, tc := range cases {
		if got := len(clientOptions(ObjectStorageConfig{Credentials: tc.creds})); got != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.name, tc.want, got)
		}
	}
}
