package raster

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ecotope/rangecast/internal/grid"
)

// defaultNoData is the NODATA_value written to ASCII grid output.
const defaultNoData = -9999.0

// ReadASCIIGrid parses an ESRI ASCII grid. The header supplies extent and
// resolution; data rows run north to south and are re-indexed to the
// south-west-origin cell numbering used by grid.Grid.
func ReadASCIIGrid(r io.Reader) (*Raster, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	header := map[string]float64{}
	noData := defaultNoData
	var tokens []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "cellsize":
			if len(fields) != 2 {
				return nil, eris.Errorf("raster: malformed header line %q", line)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "raster: parse header %s", key)
			}
			header[key] = v
		case "nodata_value":
			if len(fields) != 2 {
				return nil, eris.Errorf("raster: malformed header line %q", line)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, eris.Wrap(err, "raster: parse nodata_value")
			}
			noData = v
		default:
			tokens = append(tokens, fields...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "raster: scan ascii grid")
	}

	for _, key := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := header[key]; !ok {
			return nil, eris.Errorf("raster: header missing %s", key)
		}
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	cellSize := header["cellsize"]
	extent := grid.Extent{
		MinX: header["xllcorner"],
		MinY: header["yllcorner"],
		MaxX: header["xllcorner"] + float64(cols)*cellSize,
		MaxY: header["yllcorner"] + float64(rows)*cellSize,
	}

	g, err := grid.New(extent, cellSize)
	if err != nil {
		return nil, err
	}
	if g.Rows != rows || g.Cols != cols {
		return nil, eris.Errorf("raster: grid shape %dx%d disagrees with header %dx%d",
			g.Rows, g.Cols, rows, cols)
	}

	if len(tokens) != rows*cols {
		return nil, eris.Errorf("raster: %d values, want %d", len(tokens), rows*cols)
	}

	out := New(g)
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: parse value %q", tok)
		}
		// Token order is north-to-south; flip the row.
		srcRow := i / cols
		col := i % cols
		row := rows - 1 - srcRow
		if v == noData {
			v = math.NaN()
		}
		out.Values[row*cols+col] = v
	}

	return out, nil
}

// WriteASCIIGrid writes the raster as an ESRI ASCII grid, rows north to south.
func WriteASCIIGrid(w io.Writer, r *Raster) error {
	g := r.Grid
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %s\n", strconv.FormatFloat(g.Extent.MinX, 'f', -1, 64))
	fmt.Fprintf(bw, "yllcorner %s\n", strconv.FormatFloat(g.Extent.MinY, 'f', -1, 64))
	fmt.Fprintf(bw, "cellsize %s\n", strconv.FormatFloat(g.CellSize, 'f', -1, 64))
	fmt.Fprintf(bw, "NODATA_value %s\n", strconv.FormatFloat(defaultNoData, 'f', -1, 64))

	for row := g.Rows - 1; row >= 0; row-- {
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return eris.Wrap(err, "raster: write ascii grid")
				}
			}
			v := r.Values[row*g.Cols+col]
			if math.IsNaN(v) {
				v = defaultNoData
			}
			if _, err := bw.WriteString(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
				return eris.Wrap(err, "raster: write ascii grid")
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return eris.Wrap(err, "raster: write ascii grid")
		}
	}

	return eris.Wrap(bw.Flush(), "raster: flush ascii grid")
}

// ReadFile loads an ASCII grid raster from disk.
func ReadFile(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = f.Close() }()
	r, err := ReadASCIIGrid(f)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read %s", path)
	}
	return r, nil
}

// WriteFile writes an ASCII grid raster to disk.
func WriteFile(path string, r *Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	defer func() { _ = f.Close() }()
	if err := WriteASCIIGrid(f, r); err != nil {
		return err
	}
	return eris.Wrapf(f.Close(), "raster: close %s", path)
}
