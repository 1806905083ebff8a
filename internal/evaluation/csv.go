package evaluation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSV parses per-model evaluation records for one species. The expected
// layout is one row per fitted model:
//
//	species,model,auc,kappa,spec_sens,no_omission,prevalence,equal_sens_spec,sensitivity
//
// Criterion columns are matched by header name; blank cells leave the
// criterion absent from the record (surfacing later as ErrMissingStatistic).
func ReadCSV(r io.Reader) (map[string]*Record, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "evaluation: read csv header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"species", "model", "auc"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("evaluation: csv header missing %q column", required)
		}
	}

	records := make(map[string]*Record)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "evaluation: read csv row")
		}

		rec := &Record{
			Species:    strings.TrimSpace(row[col["species"]]),
			Model:      strings.TrimSpace(row[col["model"]]),
			Thresholds: make(map[Criterion]float64),
		}
		auc, err := strconv.ParseFloat(strings.TrimSpace(row[col["auc"]]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "evaluation: parse auc for model %s", rec.Model)
		}
		rec.AUC = auc

		for _, c := range Criteria {
			i, ok := col[string(c)]
			if !ok || i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "evaluation: parse %s for model %s", c, rec.Model)
			}
			rec.Thresholds[c] = v
		}

		records[rec.Model] = rec
	}

	if len(records) == 0 {
		return nil, eris.New("evaluation: csv contains no records")
	}
	return records, nil
}

// ReadFile loads evaluation records from a CSV file.
func ReadFile(path string) (map[string]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evaluation: open %s", path)
	}
	defer func() { _ = f.Close() }()
	recs, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "evaluation: read %s", path)
	}
	return recs, nil
}
