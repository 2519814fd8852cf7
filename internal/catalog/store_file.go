package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileStore reads the catalog from a JSON array, or a YAML sequence when the
// file ends in .yaml/.yml. The file is re-read on every Load.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCatalogNotFound, s.Path)
		}
		return err
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, s.Path)
		}
		return nil, err
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		records, err = decodeYAML(raw)
	default:
		records, err = decodeJSON(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogParse, s.Path, err)
	}

	assignIDs(records)
	return records, nil
}

func decodeJSON(raw []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("extra data after json array")
	}
	return nonNil(records)
}

func decodeYAML(raw []byte) ([]Record, error) {
	var records []Record
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	for i, r := range records {
		for k, v := range r {
			nv, err := stringKeys(v)
			if err != nil {
				return nil, fmt.Errorf("entry %d field %s: %w", i, k, err)
			}
			r[k] = nv
		}
	}
	return nonNil(records)
}

// stringKeys rewrites nested YAML mappings so they marshal as JSON objects.
// yaml.v3 yields map[any]any when a mapping has non-string keys such as 1: x.jpg.
func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			ne, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[k] = ne
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			key := fmt.Sprint(k)
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("duplicate key %q", key)
			}
			ne, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[key] = ne
		}
		return out, nil
	case []any:
		for i, e := range t {
			ne, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[i] = ne
		}
		return t, nil
	default:
		return v, nil
	}
}

// nonNil rejects "null" entries; the top level must be an array of objects.
func nonNil(records []Record) ([]Record, error) {
	if records == nil {
		return nil, errors.New("catalog is not an array")
	}
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
	}
	return records, nil
}
