package vector

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture creates a two-region polygon shapefile in dir.
func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ecoregions.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("ECO_NAME", 40)})

	// Shapefile outer rings run clockwise.
	regions := []struct {
		name   string
		points []shp.Point
	}{
		{"west", []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 5, Y: 10}, {X: 5, Y: 0}, {X: 0, Y: 0}}},
		{"east", []shp.Point{{X: 5, Y: 0}, {X: 5, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 5, Y: 0}}},
	}
	for i, r := range regions {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{r.points}))
		w.Write(&poly)
		w.WriteAttribute(i, 0, r.name)
	}
	w.Close()

	return path
}

func TestLoadShapefile(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	regions, err := LoadShapefile(path, "ECO_NAME")
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, "west", regions[0].Name)
	assert.Equal(t, "east", regions[1].Name)

	assert.True(t, regions[0].Contains(2, 5))
	assert.False(t, regions[0].Contains(7, 5))
	assert.True(t, regions[1].Contains(7, 5))
	assert.InDelta(t, 50.0, regions[0].Area(), 1e-9)
}

func TestLoadShapefile_MissingField(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	_, err := LoadShapefile(path, "NO_SUCH_FIELD")
	assert.Error(t, err)
}

func TestLoadShapefile_MissingFile(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "nope.shp"), "ECO_NAME")
	assert.Error(t, err)
}
