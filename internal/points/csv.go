package points

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSV parses a point set from CSV with a species,x,y header. The header
// is optional: a first row whose x field parses as a number is kept as data.
// Lines starting with '#' are metadata comments; a "# seed=N" comment
// restores the recorded sampling seed.
func ReadCSV(r io.Reader, class Class) (*Set, error) {
	reader := csv.NewReader(r)
	reader.Comment = 0 // comments handled manually so the seed line survives
	reader.FieldsPerRecord = -1

	set := &Set{Class: class}
	header := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "points: read csv")
		}
		if len(record) > 0 && strings.HasPrefix(record[0], "#") {
			if seed, ok := parseSeedComment(record[0]); ok {
				set.Seed = seed
			}
			continue
		}
		if header {
			header = false
			if isHeaderRow(record) {
				continue
			}
			// Headerless file: the first row is already data.
		}
		if len(record) < 3 {
			return nil, eris.Errorf("points: csv row has %d fields, want 3", len(record))
		}

		species := strings.TrimSpace(record[0])
		if set.Species == "" {
			set.Species = species
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "points: parse x %q", record[1])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "points: parse y %q", record[2])
		}
		set.Points = append(set.Points, Point{X: x, Y: y})
	}

	return set, nil
}

// WriteCSV writes the set with a species,x,y header. Sampled sets carry
// their seed as a leading comment so downstream audits can reproduce them.
func WriteCSV(w io.Writer, set *Set) error {
	if set.Seed != 0 {
		if _, err := fmt.Fprintf(w, "# seed=%d\n", set.Seed); err != nil {
			return eris.Wrap(err, "points: write seed comment")
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"species", "x", "y"}); err != nil {
		return eris.Wrap(err, "points: write header")
	}
	for _, p := range set.Points {
		row := []string{
			set.Species,
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrap(err, "points: write row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "points: flush csv")
}

// ReadFile loads a point set from a CSV file.
func ReadFile(path string, class Class) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "points: open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, class)
}

// WriteFile writes a point set to a CSV file.
func WriteFile(path string, set *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "points: create %s", path)
	}
	defer func() { _ = f.Close() }()
	if err := WriteCSV(f, set); err != nil {
		return err
	}
	return eris.Wrapf(f.Close(), "points: close %s", path)
}

// isHeaderRow reports whether a row is a column header rather than data:
// fewer than three fields, or an x field that does not parse as a number.
func isHeaderRow(record []string) bool {
	if len(record) < 3 {
		return true
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	return err != nil
}

func parseSeedComment(field string) (int64, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(field, "#"))
	if !strings.HasPrefix(s, "seed=") {
		return 0, false
	}
	seed, err := strconv.ParseInt(strings.TrimPrefix(s, "seed="), 10, 64)
	if err != nil {
		return 0, false
	}
	return seed, true
}
