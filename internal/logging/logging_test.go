// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, LevelFromVerbosity(0))
	assert.Equal(t, zerolog.DebugLevel, LevelFromVerbosity(1))
	assert.Equal(t, zerolog.TraceLevel, LevelFromVerbosity(3))
}

func TestWithComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(zerolog.DebugLevel, &buf)

	l := WithComponent("lookup")
	l.Info().Str("name", "A. Smith").Msg("looked up")

	out := buf.String()
	assert.Contains(t, out, "component=lookup")
	assert.Contains(t, out, "looked up")
	assert.Contains(t, out, "A. Smith")
}

func TestInitFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(zerolog.InfoLevel, &buf)

	l := WithComponent("proxy")
	l.Debug().Msg("hidden")

	assert.NotContains(t, buf.String(), "hidden")
}
