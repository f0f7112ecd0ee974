package main

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeqcd/gofix/internal/config"
	"github.com/latticeqcd/gofix/internal/gferr"
	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/lattice"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "007", formatNumber(3, 7))
	assert.Equal(t, "42", formatNumber(1, 42))
	assert.Equal(t, "42", formatNumber(2, 42))
	assert.Equal(t, "0000", formatNumber(4, 0))
}

func TestInputPath(t *testing.T) {
	opts := config.Options{FBasename: "conf_", FNumberformat: 4, FEnding: ".vogt"}
	assert.Equal(t, "conf_0012.vogt", inputPath(opts, 12))
}

func TestOutputPathUsesFEndingWhenOutputEndingUnset(t *testing.T) {
	opts := config.Options{
		OutputConf:      "out/",
		FOutputAppendix: "gaugefixed_",
		FNumberformat:   3,
		FEnding:         ".vogt",
	}
	assert.Equal(t, "out/gaugefixed_005.vogt", outputPath(opts, 5))
}

func TestOutputPathPrefersOutputEnding(t *testing.T) {
	opts := config.Options{
		OutputConf:      "out/",
		OutputEnding:    ".ildg",
		FOutputAppendix: "gaugefixed_",
		FNumberformat:   3,
		FEnding:         ".vogt",
	}
	assert.Equal(t, "out/gaugefixed_005.ildg", outputPath(opts, 5))
}

func TestParseGaugeType(t *testing.T) {
	cases := map[string]kernel.GaugeType{
		"landau":  kernel.Landau,
		"Coulomb": kernel.Coulomb,
		"MAG":     kernel.MAG,
		"u1xu1":   kernel.U1xU1,
	}
	for s, want := range cases {
		got, err := parseGaugeType(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseGaugeType("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gferr.ErrInvalidOption))
}

func TestParsePattern(t *testing.T) {
	size := lattice.Size{Nt: 4, Nx: 4, Ny: 4, Nz: 4}
	for _, name := range []string{"standard", "gpu", "gpulandau", "gputimeslice", "gputimesliceparity"} {
		pat, err := parsePattern(name, size)
		require.NoError(t, err)
		assert.NotNil(t, pat)
	}

	_, err := parsePattern("bogus", size)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gferr.ErrInvalidOption))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(errors.Wrap(gferr.ErrInvalidOption, "bad flag")))
	assert.Equal(t, 2, exitCode(errors.Wrap(gferr.ErrFormat, "bad file")))
	assert.Equal(t, 3, exitCode(errors.Wrap(gferr.ErrIO, "disk")))
	assert.Equal(t, 4, exitCode(errors.Wrap(gferr.ErrRank, "dial")))
	assert.Equal(t, 5, exitCode(errors.Wrap(gferr.ErrConvergence, "no converge")))
	assert.Equal(t, 1, exitCode(errors.New("unexpected")))
}
