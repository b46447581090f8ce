package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store holds definitions keyed by form id.
type Store struct {
	forms map[string]*Form
}

// Parse decodes a single definition document. Unknown keys are rejected.
func Parse(data []byte, source string) (*Form, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("definition: file %s is empty", source)
	}
	var form Form
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&form); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	if err := form.normalise(source); err != nil {
		return nil, err
	}
	return &form, nil
}

// Load reads and parses a definition from r.
func Load(r io.Reader, source string) (*Form, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", source, err)
	}
	return Parse(data, source)
}

// LoadFS walks fsys from root and parses every YAML file into a Store. Form
// ids must be unique across files.
func LoadFS(fsys fs.FS, root string) (*Store, error) {
	if fsys == nil {
		return nil, errors.New("definition: filesystem is nil")
	}
	if root == "" {
		root = "."
	}

	store := &Store{forms: make(map[string]*Form)}
	sources := make(map[string]string)
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		form, err := Parse(data, path)
		if err != nil {
			return err
		}
		if prev, exists := sources[form.ID]; exists {
			return fmt.Errorf("definition: form %q defined in both %s and %s", form.ID, prev, path)
		}
		sources[form.ID] = path
		store.forms[form.ID] = form
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Form returns the definition registered under id.
func (s *Store) Form(id string) (*Form, bool) {
	if s == nil {
		return nil, false
	}
	form, ok := s.forms[strings.TrimSpace(id)]
	return form, ok
}

// IDs lists the stored form ids in order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
