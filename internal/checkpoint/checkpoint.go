// Package checkpoint tracks which input files a report type has already
// processed, so re-runs over a growing input directory only touch new files.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	kerrors "kitacli/internal/errors"
)

// Set is the collection of processed file names backed by one JSON file.
type Set struct {
	path  string
	names map[string]struct{}
}

// Load reads the checkpoint file. A missing file is an empty set, not an
// error: first runs start from nothing.
func Load(path string) (*Set, error) {
	s := &Set{path: path, names: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, kerrors.NewIO(fmt.Sprintf("cannot read checkpoint %s", path), err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, kerrors.NewIO(fmt.Sprintf("checkpoint %s is corrupt", path), err)
	}
	for _, name := range names {
		s.names[name] = struct{}{}
	}
	return s, nil
}

// Contains reports whether the file name was already processed.
func (s *Set) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Add marks a file as processed and persists the set immediately, so a crash
// mid-batch loses at most the file in flight.
func (s *Set) Add(name string) error {
	s.names[name] = struct{}{}
	return s.save()
}

// Len returns the number of recorded files.
func (s *Set) Len() int {
	return len(s.names)
}

// Clear removes the checkpoint file and empties the set.
func (s *Set) Clear() error {
	s.names = make(map[string]struct{})
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return kerrors.NewIO(fmt.Sprintf("cannot remove checkpoint %s", s.path), err)
	}
	return nil
}

func (s *Set) save() error {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)

	data, err := json.Marshal(names)
	if err != nil {
		return kerrors.NewIO("cannot encode checkpoint", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return kerrors.NewIO(fmt.Sprintf("cannot create checkpoint directory for %s", s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return kerrors.NewIO(fmt.Sprintf("cannot write checkpoint %s", s.path), err)
	}
	return nil
}
