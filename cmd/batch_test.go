//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGeocodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocodes.txt")
	content := `
# verified parcels
03-1032-34-1-08-10-0000

05-1799-01-1-01-01-0000
  07-0545-12-3-01-02-0000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	geocodes, err := readGeocodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"03-1032-34-1-08-10-0000",
		"05-1799-01-1-01-01-0000",
		"07-0545-12-3-01-02-0000",
	}, geocodes)
}

func TestReadGeocodeFileMissing(t *testing.T) {
	_, err := readGeocodeFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
