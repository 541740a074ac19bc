// Package configsource reads the declarative template and prompt-source
// documents from a versioned backing store.
package configsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a single document plus a version token that changes whenever
// the document does. Version returns "0" when the document is absent.
type Source interface {
	Name() string
	ReadAll(ctx context.Context) ([]byte, error)
	Version(ctx context.Context) string
}

// Decode parses raw into dst. Documents named *.yaml or *.yml are converted
// to JSON first so a single set of json tags drives both formats.
func Decode(name string, raw []byte, dst any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse yaml %s: %w", name, err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("convert yaml %s: %w", name, err)
		}
		raw = b
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("parse json %s: %w", name, err)
	}
	return nil
}
