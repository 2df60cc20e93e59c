package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewWithOutput はJSON形式とフィールド名を検証する。
func TestNewWithOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithOutput("dashboard", "info", &buf)
	log.WithField("user_id", "user-1").Info("起動しました")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dashboard", entry["service"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "起動しました", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

// TestParseLevel はログレベル文字列の変換を検証する。
func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, logrus.ErrorLevel, parseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
	assert.Equal(t, logrus.InfoLevel, parseLevel("verbose"))
}
