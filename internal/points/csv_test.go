package points

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"# seed=42",
		"species,x,y",
		"Bradypus variegatus,-65.4,-10.38",
		"Bradypus variegatus,-65.38,-10.37",
	}, "\n")

	set, err := ReadCSV(strings.NewReader(in), Presence)
	require.NoError(t, err)

	assert.Equal(t, "Bradypus variegatus", set.Species)
	assert.Equal(t, Presence, set.Class)
	assert.Equal(t, int64(42), set.Seed)
	require.Len(t, set.Points, 2)
	assert.Equal(t, Point{X: -65.4, Y: -10.38}, set.Points[0])
}

func TestReadCSV_Headerless(t *testing.T) {
	in := "Bradypus variegatus,-65.4,-10.38\nBradypus variegatus,-65.38,-10.37\n"

	set, err := ReadCSV(strings.NewReader(in), Presence)
	require.NoError(t, err)

	assert.Equal(t, "Bradypus variegatus", set.Species)
	require.Len(t, set.Points, 2, "first data row must not be consumed as a header")
	assert.Equal(t, Point{X: -65.4, Y: -10.38}, set.Points[0])
}

func TestReadCSV_BadRow(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("species,x,y\nfoo,notanumber,1\n"), Presence)
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("species,x,y\nfoo\n"), Presence)
	assert.Error(t, err)
}

func TestWriteCSV_RecordsSeed(t *testing.T) {
	set := &Set{
		Species: "sp1",
		Class:   Background,
		Seed:    1234,
		Points:  []Point{{X: 1.5, Y: 2.25}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, set))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# seed=1234\n"))
	assert.Contains(t, out, "sp1,1.5,2.25")

	back, err := ReadCSV(&buf, Background)
	require.NoError(t, err)
	assert.Equal(t, set.Seed, back.Seed)
	assert.Equal(t, set.Points, back.Points)
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass("pseudoabsence")
	require.NoError(t, err)
	assert.Equal(t, PseudoAbsence, c)

	_, err = ParseClass("absence")
	assert.Error(t, err)
}
