// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists the names a run has not processed yet, so an
// interrupted or blocked run can be resumed by passing the checkpoint file
// back as the name list.
package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

const stampLayout = "20060102-150405"

// checkpointSuffix matches the suffix Path and BlockedPath append.
var checkpointSuffix = regexp.MustCompile(`_remaining(_\d{8}-\d{6})?$`)

// Path returns the rolling checkpoint path for a names file:
// <dir>/<base>_remaining<ext>.
func Path(namesPath string) string {
	dir, base, ext := split(namesPath)
	return filepath.Join(dir, base+"_remaining"+ext)
}

// BlockedPath returns the timestamped checkpoint path written when a run is
// blocked: <dir>/<base>_remaining_<stamp><ext>.
func BlockedPath(namesPath string, t time.Time) string {
	dir, base, ext := split(namesPath)
	return filepath.Join(dir, base+"_remaining_"+t.Format(stampLayout)+ext)
}

func split(namesPath string) (dir, base, ext string) {
	if namesPath == "" {
		namesPath = "names.txt"
	}
	dir = filepath.Dir(namesPath)
	name := filepath.Base(namesPath)
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	// Resuming from a checkpoint should not stack suffixes.
	if loc := checkpointSuffix.FindStringIndex(base); loc != nil && loc[0] > 0 {
		base = base[:loc[0]]
	}
	return dir, base, ext
}

// Write replaces path with names, one per line. The file is written to a
// temporary sibling and renamed into place.
func Write(path string, names []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, n := range names {
		w.WriteString(n)
		w.WriteByte('\n')
	}
	err = w.Flush()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing checkpoint %s: %w", path, err)
	}
	return nil
}

// Read returns the names in path, trimmed, with blank lines skipped.
// A missing file is a configuration error.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: name list %s does not exist", types.ErrConfig, path)
		}
		return nil, fmt.Errorf("opening name list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if n := strings.TrimSpace(scanner.Text()); n != "" {
			names = append(names, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading name list: %w", err)
	}
	return names, nil
}

// Remaining is the ordered list of names not yet processed.
type Remaining struct {
	names []string
}

// NewRemaining starts a remaining set holding all of names.
func NewRemaining(names []string) *Remaining {
	r := &Remaining{names: make([]string, len(names))}
	copy(r.names, names)
	return r
}

// Done removes the first occurrence of name and returns the names left.
func (r *Remaining) Done(name string) []string {
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i:i], r.names[i+1:]...)
			break
		}
	}
	return r.Names()
}

// Names returns a copy of the names left, in input order.
func (r *Remaining) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of names left.
func (r *Remaining) Len() int { return len(r.names) }
