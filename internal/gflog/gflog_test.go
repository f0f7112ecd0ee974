package gflog

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigureRedirectsOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure(zerolog.InfoLevel, &buf)
	Info().Str("phase", "test").Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "phase")
}

func TestConfigureFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(zerolog.WarnLevel, &buf)
	Debug().Msg("should not appear")
	assert.Empty(t, buf.String())
}

func TestWithRankAddsField(t *testing.T) {
	var buf bytes.Buffer
	Configure(zerolog.InfoLevel, &buf)
	WithRank(3).Info().Msg("tagged")
	assert.Contains(t, buf.String(), "3")
}
