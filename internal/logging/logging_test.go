package logging

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, Setup("debug", &buf))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	log.WithField("session", "abc").Debug("hello")
	assert.Contains(t, buf.String(), "session=abc")
}

func TestSetup_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup("", &buf))
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestSetup_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Setup("loud", &buf))
}
