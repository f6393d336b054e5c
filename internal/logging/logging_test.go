package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Str("file", "a.go").Msg("merged")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "a.go", entry["file"])
	assert.Equal(t, "merged", entry["message"])
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupBadLevelDefaultsToInfo(t *testing.T) {
	logger := Setup(Options{Level: "loud", Format: "json", Output: &bytes.Buffer{}})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
