package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/binzume/bvhkit/bvh"
)

// ErrMotionNotFound is returned for names with no matching file.
var ErrMotionNotFound = errors.New("motion not found")

// MotionStore loads .bvh files from a directory and keeps them parsed.
type MotionStore struct {
	dir   string
	scale float64

	mu    sync.RWMutex
	cache map[string]*bvh.Motion
}

func NewMotionStore(dir string, scale float64) *MotionStore {
	if scale == 0 {
		scale = 1
	}
	return &MotionStore{dir: dir, scale: scale, cache: map[string]*bvh.Motion{}}
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Path returns the file backing name.
func (s *MotionStore) Path(name string) (string, error) {
	if !validName(name) {
		return "", ErrMotionNotFound
	}
	return filepath.Join(s.dir, name+".bvh"), nil
}

// List returns the names of stored motions, sorted.
func (s *MotionStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".bvh") {
			seen[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = true
		}
	}
	s.mu.RLock()
	for name := range s.cache {
		seen[name] = true
	}
	s.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the named motion, parsing the file on first use.
func (s *MotionStore) Get(name string) (*bvh.Motion, error) {
	s.mu.RLock()
	m, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	m, err = bvh.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMotionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if s.scale != 1 {
		m = m.Scaled(s.scale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = m
	return m, nil
}

// Put stores an already parsed motion under name.
func (s *MotionStore) Put(name string, m *bvh.Motion) error {
	if !validName(name) {
		return fmt.Errorf("invalid motion name %q", name)
	}
	s.mu.Lock()
	s.cache[name] = m
	s.mu.Unlock()
	return nil
}
