// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decoy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

var addressColumns = []string{"address", "url", "site"}

// LoadSites reads decoy site addresses from a CSV file. The address column
// is the one named address, url, or site. A single-column file uses its
// only column; its first row is treated as a header unless it looks like a
// host name. Addresses without a scheme get http://.
func LoadSites(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: decoy site list %s does not exist", types.ErrConfig, path)
		}
		return nil, fmt.Errorf("opening decoy site list: %w", err)
	}
	defer f.Close()
	return readSites(f, path)
}

func readSites(r io.Reader, path string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrConfig, path, err)
	}

	col := -1
	for i, h := range header {
		for _, name := range addressColumns {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				col = i
			}
		}
	}

	var sites []string
	switch {
	case col >= 0:
	case len(header) == 1:
		col = 0
		if strings.Contains(header[0], ".") {
			sites = append(sites, normalize(header[0]))
		}
	default:
		return nil, fmt.Errorf("%w: %s has no address, url, or site column", types.ErrConfig, path)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", types.ErrConfig, path, err)
		}
		if col >= len(rec) {
			continue
		}
		if s := normalize(rec[col]); s != "" {
			sites = append(sites, s)
		}
	}
	return sites, nil
}

func normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return addr
}
