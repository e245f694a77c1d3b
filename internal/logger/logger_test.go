package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOutput(&buf, "debug", "json")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, l.Level)

	l.WithField("area_cm2", 1.5).Info("measured")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "measured", entry["msg"])
	require.Equal(t, 1.5, entry["area_cm2"])
}

func TestNewWithOutput_Errors(t *testing.T) {
	_, err := NewWithOutput(&bytes.Buffer{}, "loud", "json")
	require.Error(t, err)

	_, err = NewWithOutput(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
