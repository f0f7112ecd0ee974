package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeqcd/gofix/internal/gferr"
	"github.com/latticeqcd/gofix/internal/ioformat"
)

func TestParseAppliesDefaults(t *testing.T) {
	opts, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

func TestParseOverridesDefaults(t *testing.T) {
	opts, err := Parse([]string{"--sasteps=500", "--gaugecopies=4", "--ftype=ILDG"})
	require.NoError(t, err)
	assert.Equal(t, 500, opts.SASteps)
	assert.Equal(t, 4, opts.GaugeCopies)
	assert.Equal(t, ioformat.ILDG, opts.FType)
}

func TestParseRejectsUnknownFileType(t *testing.T) {
	_, err := Parse([]string{"--ftype=NOTAFORMAT"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gferr.ErrInvalidOption))
}

func TestParseRejectsInvalidGaugeCopies(t *testing.T) {
	_, err := Parse([]string{"--gaugecopies=0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gferr.ErrInvalidOption))
}

func TestConfigFileValuesApplyWhenFlagNotSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaugefix.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
sasteps = 250
gaugecopies = 3
ftype = "QCDSTAG"
`), 0o644))

	opts, err := Parse([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 250, opts.SASteps)
	assert.Equal(t, 3, opts.GaugeCopies)
	assert.Equal(t, ioformat.QCDSTAG, opts.FType)
}

func TestCommandLineOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaugefix.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
sasteps = 250
`), 0o644))

	opts, err := Parse([]string{"--sasteps=999", path})
	require.NoError(t, err)
	assert.Equal(t, 999, opts.SASteps)
}

func TestReinterpretModes(t *testing.T) {
	opts, err := Parse([]string{"--reinterpret=FLOAT"})
	require.NoError(t, err)
	assert.Equal(t, Float, opts.Reinterpret)

	_, err = Parse([]string{"--reinterpret=BOGUS"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gferr.ErrInvalidOption))
}
