package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrim/gotrim/internal/trajectory"
	"github.com/gotrim/gotrim/internal/vec"
)

func TestPathLineString(t *testing.T) {
	path := []vec.Vec3{{0, 0, 0}, {0, 0, 2.7}, {0.5, -0.2, 5.3}}

	ls, err := PathLineString(path)
	require.NoError(t, err)

	seq := ls.Coordinates()
	require.Equal(t, 3, seq.Length())
	assert.True(t, seq.CoordinatesType().Is3D())

	last := seq.Get(2)
	assert.Equal(t, 0.5, last.X)
	assert.Equal(t, -0.2, last.Y)
	assert.Equal(t, 5.3, last.Z)
}

func TestPathLineStringTooShort(t *testing.T) {
	_, err := PathLineString([]vec.Vec3{{0, 0, 0}})
	assert.Error(t, err)
	_, err = PathLineString(nil)
	assert.Error(t, err)
}

func TestPathWKT(t *testing.T) {
	wkt, err := PathWKT([]vec.Vec3{{0, 0, 0}, {0, 0, 1}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(wkt, "LINESTRING Z"), wkt)
}

func TestStoppedCloud(t *testing.T) {
	results := []trajectory.Result{
		{Pos: vec.New(1, 2, 3), StoppedInside: true},
		{Pos: vec.New(0, 0, 9999), StoppedInside: false},
		{Pos: vec.New(-4, 5, 6), StoppedInside: true},
	}

	mp := StoppedCloud(results)
	assert.Equal(t, 2, mp.NumPoints())

	empty := StoppedCloud(nil)
	assert.Equal(t, 0, empty.NumPoints())
}
