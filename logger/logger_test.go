package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLevels(t *testing.T) {
	defer Configure("info", "text")

	tcs := []struct {
		in   string
		want logrus.Level
	}{
		{"error", logrus.ErrorLevel},
		{"WARN", logrus.WarnLevel},
		{"debug", logrus.DebugLevel},
		{"", logrus.InfoLevel},
		{"chatty", logrus.InfoLevel},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.want, Configure(tc.in, "text").Level, tc.in)
	}
}

func TestWithPrefixJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure("info", "json")
	defer func() {
		Configure("info", "text")
		SetOutput(logrus.StandardLogger().Out)
	}()

	WithPrefix("db").Info("connected")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "db", line["prefix"])
	assert.Equal(t, "connected", line["msg"])
}
