package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLevels(t *testing.T) {
	assert.True(t, NewLogger(true).Core().Enabled(zap.DebugLevel))
	assert.False(t, NewLogger(false).Core().Enabled(zap.DebugLevel))
	assert.True(t, NewLogger(false).Core().Enabled(zap.InfoLevel))

	assert.False(t, NewConsoleLogger(false).Core().Enabled(zap.InfoLevel))
	assert.True(t, NewConsoleLogger(false).Core().Enabled(zap.WarnLevel))
	assert.True(t, NewConsoleLogger(true).Core().Enabled(zap.DebugLevel))
}
