// Package csvlog reads transmitter telemetry CSV logs into raw rows,
// disambiguating the duplicate column names those logs are known for.
package csvlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
)

// Source reads raw telemetry rows from log files. It implements
// pipeline.RowSource.
type Source struct {
	table domain.FieldTable
}

// NewSource creates a Source that renames duplicate headers using the given
// field table.
func NewSource(table domain.FieldTable) *Source {
	return &Source{table: table}
}

// ReadRows reads and concatenates the given logs in sorted order, so a
// flight the transmitter split across files stays one track.
func (s *Source) ReadRows(paths []string) ([]domain.RawRow, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var rows []domain.RawRow
	for _, p := range sorted {
		fileRows, err := readFile(p, s.table)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func readFile(path string, table domain.FieldTable) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, table)
}

// Read parses one telemetry CSV. The first row is the header; duplicate
// header names are renamed positionally from the field table before any data
// row is keyed. Rows truncated by a power loss keep whatever columns they
// have.
func Read(r io.Reader, table domain.FieldTable) ([]domain.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // transmitter logs end mid-row when power drops

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := renameDuplicates(all[0], table)

	rows := make([]domain.RawRow, 0, len(all)-1)
	for _, record := range all[1:] {
		row := make(domain.RawRow, len(header))
		for i, name := range header {
			if i >= len(record) {
				break
			}
			row[name] = strings.TrimSpace(record[i])
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// renameDuplicates disambiguates header names that appear as a canonical
// field with several source candidates, assigning candidates right to left.
// With both altitude columns present, the later one becomes the vario
// altitude and the earlier one the GPS altitude; with only one present, it
// takes the last candidate name, which is also the highest-priority one, so
// resolution lands on the same value either way.
func renameDuplicates(header []string, table domain.FieldTable) []string {
	pending := make(map[string][]string)
	for canonical, candidates := range table {
		if len(candidates) < 2 {
			continue
		}
		c := make([]string, len(candidates))
		copy(c, candidates)
		pending[canonical] = c
	}

	out := make([]string, len(header))
	for i := len(header) - 1; i >= 0; i-- {
		name := strings.TrimSpace(header[i])
		if candidates := pending[name]; len(candidates) > 0 {
			out[i] = candidates[len(candidates)-1]
			pending[name] = candidates[:len(candidates)-1]
			continue
		}
		out[i] = name
	}
	return out
}
