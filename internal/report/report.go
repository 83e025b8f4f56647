// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the lookup report: a fixed header followed by one
// row per author with a definitive outcome. Every write opens, appends, and
// closes the file so an interrupted run leaves all completed rows on disk.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

// Format selects the report layout.
type Format int

const (
	Text Format = iota
	CSV
)

const (
	title     = "Google Scholar Search Result"
	rule      = "=========================="
	columns   = "Name         Publish?         Total"
	separator = "    "
)

var csvHeader = []string{"name", "publish", "total"}

// ErrMalformedRow is returned by ReadRows for a row it cannot parse.
var ErrMalformedRow = errors.New("malformed report row")

// Header describes the query the report answers.
type Header struct {
	Venue string
	Years string
}

// Row is one report line.
type Row struct {
	Name    string
	Outcome types.Outcome
	Count   int
}

// Create truncates path and writes the header block.
func Create(path string, h Header, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	if format == CSV {
		w := csv.NewWriter(f)
		w.Write(csvHeader)
		w.Flush()
		err = w.Error()
	} else {
		_, err = fmt.Fprintf(f, "%s\nVenue: %s\nYears: %s\n%s\n%s\n", title, h.Venue, h.Years, rule, columns)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	return nil
}

// Append adds one row to an existing report.
func Append(path string, row Row, format Format) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening report %s: %w", path, err)
	}
	if format == CSV {
		w := csv.NewWriter(f)
		w.Write([]string{row.Name, row.Outcome.String(), strconv.Itoa(row.Count)})
		w.Flush()
		err = w.Error()
	} else {
		_, err = fmt.Fprintf(f, "%s%s%s%s%d\n", row.Name, separator, row.Outcome, separator, row.Count)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("appending to report: %w", err)
	}
	return nil
}

// ReadRows parses the rows of a report written by Create and Append.
func ReadRows(path string, format Format) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	if format == CSV {
		return readCSV(f)
	}
	return readText(f)
}

// Covered returns the names that have a definitive row.
func Covered(rows []Row) map[string]bool {
	done := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Outcome.Definitive() {
			done[r.Name] = true
		}
	}
	return done
}

func readText(r io.Reader) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			inBody = line == columns
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, separator)
		if len(parts) < 3 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRow, line)
		}
		n := len(parts)
		row, err := parseRow(strings.Join(parts[:n-2], separator), parts[n-2], parts[n-1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, line)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]Row, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var rows []Row
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == csvHeader[0] {
			continue
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("%w: record %d has %d fields", ErrMalformedRow, i+1, len(rec))
		}
		row, err := parseRow(rec[0], rec[1], rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: record %d", err, i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(name, flag, count string) (Row, error) {
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil {
		return Row{}, ErrMalformedRow
	}
	o, err := types.ParseOutcome(strings.TrimSpace(flag))
	if err != nil {
		return Row{}, ErrMalformedRow
	}
	return Row{Name: name, Outcome: o, Count: n}, nil
}
