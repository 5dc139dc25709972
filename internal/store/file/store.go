package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

// Format is the on-disk encoding of a settings file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported settings file extension: %q", filepath.Ext(path))
	}
}

// Store persists endpoint settings as a flat key/value document:
//
//	jelly_primary: http://10.0.0.5:5055
//	jelly_secondary: https://jelly.example.com
//
// Values are stored verbatim. Keys that do not name a service slot are
// preserved on save but ignored on load.
type Store struct {
	mu     sync.Mutex
	path   string
	format Format
}

// New creates a file store for path. The file does not need to exist yet.
func New(path string) (*Store, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, format: format}, nil
}

// Name implements domain.SettingsStore.
func (s *Store) Name() string { return "file:" + string(s.format) }

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the settings file. A missing file yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readLocked()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.SnapshotFromValues(values), nil
}

// Save rewrites the file with both slots of id replaced.
func (s *Store) Save(ctx context.Context, id domain.ServiceIdentity, pair domain.EndpointPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readLocked()
	if err != nil {
		return err
	}
	if values == nil {
		values = make(map[string]string, 2)
	}
	for _, slot := range domain.Slots() {
		values[id.SettingsKey(slot)] = pair.Get(slot)
	}

	data, err := s.encode(values)
	if err != nil {
		return err
	}
	return writeAtomic(s.path, data)
}

// Close implements domain.SettingsStore.
func (s *Store) Close() error { return nil }

func (s *Store) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	values := map[string]string{}
	switch s.format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &values); err != nil {
			return nil, fmt.Errorf("failed to parse settings toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse settings yaml: %w", err)
		}
	}
	return values, nil
}

func (s *Store) encode(values map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	switch s.format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(values); err != nil {
			return nil, fmt.Errorf("failed to encode settings toml: %w", err)
		}
	default:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(values); err != nil {
			return nil, fmt.Errorf("failed to encode settings yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode settings yaml: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
