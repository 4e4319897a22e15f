package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProdWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("prod", &buf)

	log.Debug().Msg("hidden")
	require.Zero(t, buf.Len())

	log.Info().Str("id", "abc").Msg("student created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "student created", entry["message"])
	require.Equal(t, "abc", entry["id"])
	require.Equal(t, "prod", entry["env"])
}

func TestDevLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("dev", &buf)

	log.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
}
