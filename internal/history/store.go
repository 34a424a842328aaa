package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/segmentio/ksuid"
)

const (
	DefaultLimit = 15
	indexFile    = "index.json"
	lockFile     = ".lock"
	tempPrefix   = ".tmp-"
)

var ErrNotFound = errors.New("history entry not found")

// Entry describes one archived generation. The image itself lives next to
// the index under File.
type Entry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	File        string    `json:"file"`
	MimeType    string    `json:"mime_type"`
	Bytes       int       `json:"bytes"`
	Prompt      string    `json:"prompt"`
	Source      string    `json:"source,omitempty"`
	Persona     string    `json:"persona,omitempty"`
	Shot        string    `json:"shot,omitempty"`
	AspectRatio string    `json:"aspect_ratio,omitempty"`
	Effect      string    `json:"effect,omitempty"`
}

type index struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

type Options struct {
	Dir    string
	Limit  int
	Logger *slog.Logger
	Now    func() time.Time
}

// Store keeps the most recent generations on disk, oldest evicted first.
// Several processes may share one directory; every index access holds an
// exclusive lock on <dir>/.lock.
type Store struct {
	mu     sync.Mutex
	flock  *flock.Flock
	dir    string
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("history dir is empty")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	return &Store{
		flock:  flock.New(filepath.Join(opts.Dir, lockFile)),
		dir:    opts.Dir,
		limit:  limit,
		logger: logger,
		now:    now,
	}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes the image and records e in the index. ID, CreatedAt, File and
// Bytes are assigned by the store.
func (s *Store) Save(e Entry, image []byte) (Entry, error) {
	if len(image) == 0 {
		return Entry{}, errors.New("image is empty")
	}

	unlock, err := s.lock()
	if err != nil {
		return Entry{}, err
	}
	defer unlock()

	idx, err := s.readIndexLocked()
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return Entry{}, fmt.Errorf("new id: %w", err)
	}

	e.ID = id.String()
	e.CreatedAt = now.UTC()
	e.File = e.ID + extension(e.MimeType)
	e.Bytes = len(image)

	if err := writeFileAtomic(filepath.Join(s.dir, e.File), image); err != nil {
		return Entry{}, fmt.Errorf("write image: %w", err)
	}

	idx.Entries = append(idx.Entries, e)
	var evicted []Entry
	if len(idx.Entries) > s.limit {
		evicted = slices.Clone(idx.Entries[:len(idx.Entries)-s.limit])
		idx.Entries = idx.Entries[len(idx.Entries)-s.limit:]
	}

	if err := s.writeIndexLocked(idx); err != nil {
		_ = os.Remove(filepath.Join(s.dir, e.File))
		return Entry{}, err
	}

	for _, old := range evicted {
		if err := os.Remove(filepath.Join(s.dir, old.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("evict history image failed", "id", old.ID, "err", err)
		}
	}
	if err := s.sweepLocked(idx); err != nil {
		s.logger.Warn("sweep history dir failed", "err", err)
	}

	return e, nil
}

// List returns entries newest first.
func (s *Store) List() ([]Entry, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	idx, err := s.readIndexLocked()
	if err != nil {
		return nil, err
	}

	entries := slices.Clone(idx.Entries)
	slices.Reverse(entries)
	return entries, nil
}

func (s *Store) Get(id string) (Entry, error) {
	unlock, err := s.lock()
	if err != nil {
		return Entry{}, err
	}
	defer unlock()

	return s.getLocked(id)
}

// Open returns the entry together with its image bytes.
func (s *Store) Open(id string) (Entry, []byte, error) {
	unlock, err := s.lock()
	if err != nil {
		return Entry{}, nil, err
	}
	defer unlock()

	e, err := s.getLocked(id)
	if err != nil {
		return Entry{}, nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, e.File))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, nil, fmt.Errorf("%w: %s (image missing)", ErrNotFound, id)
		}
		return Entry{}, nil, fmt.Errorf("read image: %w", err)
	}
	return e, data, nil
}

// Clear removes every entry and image, including images the index lost
// track of.
func (s *Store) Clear() error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	// A corrupt index is still cleared; the sweep finds its images.
	idx, readErr := s.readIndexLocked()

	var errs []error
	if readErr == nil {
		for _, e := range idx.Entries {
			if err := os.Remove(filepath.Join(s.dir, e.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	if err := os.Remove(filepath.Join(s.dir, indexFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	if err := s.sweepLocked(index{}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// lock serializes goroutines of this process and then other processes
// sharing the directory.
func (s *Store) lock() (func(), error) {
	s.mu.Lock()
	if err := s.flock.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock history dir: %w", err)
	}
	return func() {
		if err := s.flock.Unlock(); err != nil {
			s.logger.Warn("unlock history dir failed", "err", err)
		}
		s.mu.Unlock()
	}, nil
}

// sweepLocked removes image files and leftover temp files that idx does not
// reference. Files the store did not name are left alone.
func (s *Store) sweepLocked(idx index) error {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read history dir: %w", err)
	}

	keep := make(map[string]struct{}, len(idx.Entries))
	for _, e := range idx.Entries {
		keep[e.File] = struct{}{}
	}

	var errs []error
	for _, d := range dirents {
		name := d.Name()
		if !d.Type().IsRegular() || !ownedFile(name) {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("removed orphaned history file", "file", name)
	}
	return errors.Join(errs...)
}

// ownedFile reports whether name is an image or temp file written by Save.
func ownedFile(name string) bool {
	if strings.HasPrefix(name, tempPrefix) {
		return true
	}
	_, err := ksuid.Parse(strings.TrimSuffix(name, filepath.Ext(name)))
	return err == nil
}

func (s *Store) getLocked(id string) (Entry, error) {
	if _, err := ksuid.Parse(id); err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	idx, err := s.readIndexLocked()
	if err != nil {
		return Entry{}, err
	}

	for _, e := range idx.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Store) readIndexLocked() (index, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return index{Version: 1}, nil
	}
	if err != nil {
		return index{}, fmt.Errorf("read history index: %w", err)
	}

	var idx index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return index{}, fmt.Errorf("decode history index: %w", err)
	}
	return idx, nil
}

func (s *Store) writeIndexLocked(idx index) error {
	idx.Version = 1
	raw, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, indexFile), raw); err != nil {
		return fmt.Errorf("write history index: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
