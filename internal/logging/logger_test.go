package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesService(t *testing.T) {
	logger := New("ingest", "debug", "json")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithField("source", "gold").Info("fetched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ingest", entry["service"])
	assert.Equal(t, "gold", entry["source"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New("server", "verbose", "")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}
