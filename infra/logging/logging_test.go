package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "debug", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithFields(logrus.Fields{"op": "insert", "key": 5}).Info("applied")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "insert", line["op"])
	assert.Equal(t, float64(5), line["key"])
	assert.Equal(t, "applied", line["msg"])
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("loud", FormatText)
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Info("dropped")
}
