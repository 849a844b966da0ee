package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-storefront/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.Equal(t, zerolog.DebugLevel, logging.SetupWriter(&buf, "PROD", "DEBUG"))
	require.Equal(t, zerolog.InfoLevel, logging.SetupWriter(&buf, "PROD", "chatty"))
	require.Equal(t, zerolog.InfoLevel, logging.SetupWriter(&buf, "PROD", ""))
}

func TestSetupJSONOutsideDev(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "PROD", "warn")
	log.Info().Msg("hidden")
	log.Warn().Str("user", "admin").Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "visible", entry["message"])
	require.Equal(t, "admin", entry["user"])
}

func TestSetupConsoleInDev(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "DEV", "info")
	log.Info().Msg("hello")
	require.Contains(t, buf.String(), "hello")
	require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
