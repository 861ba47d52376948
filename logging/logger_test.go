package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRespectsLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	var buf bytes.Buffer
	require.NoError(t, Init(&buf, "warn"))

	Info("hidden", "k", 1)
	Warn("shown", "signals", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "signals=3")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	assert.Error(t, Init(&bytes.Buffer{}, "loud"))
}
