package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Options configures a Store.
type Options struct {
	// MaxFileSize skips files larger than this many bytes. Zero disables the check.
	MaxFileSize int64

	// IgnorePatterns are gitignore-style patterns of files never loaded.
	IgnorePatterns []string
}

// Store reads and writes documents in a single flat directory.
type Store struct {
	dir     string
	opts    Options
	ignorer *gitignore.GitIgnore
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, opts Options) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve knowledge dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create knowledge dir: %w", err)
	}

	return &Store{
		dir:     abs,
		opts:    opts,
		ignorer: gitignore.CompileIgnoreLines(opts.IgnorePatterns...),
	}, nil
}

// Dir returns the absolute directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Ignored reports whether a file name is excluded from the store.
func (s *Store) Ignored(name string) bool {
	return strings.HasPrefix(name, ".") || s.ignorer.MatchesPath(name)
}

// List returns the names of loadable files in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if s.Ignored(name) {
			log.Debug("Skipping ignored file", "file", name)
			continue
		}

		if s.opts.MaxFileSize > 0 {
			info, err := entry.Info()
			if err == nil && info.Size() > s.opts.MaxFileSize {
				log.Debug("Skipping large file", "file", name, "size", info.Size())
				continue
			}
		}

		names = append(names, name)
	}

	// os.ReadDir already sorts; keep the order explicit
	sort.Strings(names)
	return names, nil
}

// Load reads every document in the directory. Individual file failures
// become error documents; only a failure to list the directory or a
// cancelled context is returned as an error.
func (s *Store) Load(ctx context.Context) ([]Document, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs = append(docs, s.Read(name))
	}

	log.Debug("Loaded documents", "dir", s.dir, "count", len(docs))
	return docs, nil
}

// Read loads a single document. It never fails; read errors produce a
// document of KindError with placeholder content.
func (s *Store) Read(name string) Document {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		log.Warn("Failed to read document", "file", name, "error", err)
		return Document{
			Filename: name,
			Content:  TextContent(ErrorPlaceholder(name)),
			Kind:     KindError,
		}
	}

	return FromBytes(name, raw)
}

// FromBytes builds a document from a file name and its raw bytes.
func FromBytes(name string, raw []byte) Document {
	doc := Document{
		Filename: name,
		Size:     int64(len(raw)),
		Hash:     Hash(raw),
		Kind:     KindText,
	}

	text := Decode(name, raw)
	if strings.EqualFold(filepath.Ext(name), ".json") {
		doc.Content = ParseRecord(text)
		doc.Kind = KindJSON
		return doc
	}

	doc.Content = TextContent(text)
	return doc
}

// Write stores raw bytes under name, replacing any existing file. Files that
// List would skip are refused so nothing is stored without being loaded.
func (s *Store) Write(name string, raw []byte) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}
	if s.ignorer.MatchesPath(name) {
		return fmt.Errorf("%w: %q matches an ignore pattern", ErrNotLoadable, name)
	}
	if s.opts.MaxFileSize > 0 && int64(len(raw)) > s.opts.MaxFileSize {
		return fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrNotLoadable, name, len(raw), s.opts.MaxFileSize)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	log.Debug("Stored document", "file", name, "size", len(raw))
	return nil
}

// ValidateFilename checks that name is a plain, visible file name.
func ValidateFilename(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return fmt.Errorf("%w: %q must not contain a path", ErrInvalidFilename, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q is hidden", ErrInvalidFilename, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidFilename, name)
	}
	return nil
}
