package grid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridmerge/internal/ir"
)

func TestFileSourceCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TOP500_199306.csv")
	require.NoError(t, os.WriteFile(path, []byte("Rank,Name\n1,CM-5\n"), 0644))

	src := NewFileSource(ir.Period{Year: 1993, Month: 6}, path, Options{})
	assert.Equal(t, "TOP500_199306.csv", src.Name())
	assert.Equal(t, path, src.Path())
	assert.Equal(t, ir.Period{Year: 1993, Month: 6}, src.Period())

	grid, err := src.ReadGrid()
	require.NoError(t, err)
	assert.Len(t, grid, 2)

	// Second read returns the same content.
	again, err := src.ReadGrid()
	require.NoError(t, err)
	assert.Equal(t, grid, again)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(ir.Period{Year: 1993, Month: 6}, filepath.Join(t.TempDir(), "nope.csv"), Options{})

	_, err := src.ReadGrid()
	require.Error(t, err)

	var gre *ir.GridReadError
	require.True(t, errors.As(err, &gre))
	assert.Equal(t, "nope.csv", gre.Source)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileSourceUnsupportedExtension(t *testing.T) {
	src := NewFileSource(ir.Period{Year: 1993, Month: 6}, "TOP500_199306.xls", Options{})

	_, err := src.ReadGrid()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.csv"))
	assert.True(t, IsSupported("a.XLSX"))
	assert.False(t, IsSupported("a.xls"))
	assert.False(t, IsSupported("README"))
}
