package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrainStatusString(t *testing.T) {
	tests := []struct {
		status   BrainStatus
		expected string
	}{
		{BrainStatusIdle, "idle"},
		{BrainStatusThinking, "thinking"},
		{BrainStatusImplementing, "implementing"},
		{BrainStatusPaused, "paused"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestValidBrainStatus(t *testing.T) {
	for _, s := range []BrainStatus{BrainStatusIdle, BrainStatusThinking, BrainStatusImplementing, BrainStatusPaused} {
		assert.True(t, ValidBrainStatus(s), "expected %q to be valid", s)
	}

	assert.False(t, ValidBrainStatus("running"))
	assert.False(t, ValidBrainStatus(""))
}

func TestUpdateKindString(t *testing.T) {
	assert.Equal(t, "thought", UpdateKindThought.String())
	assert.Equal(t, "action", UpdateKindAction.String())
	assert.Equal(t, "error", UpdateKindError.String())
	assert.Equal(t, "completion", UpdateKindCompletion.String())
}

func TestWorkflowCategoryString(t *testing.T) {
	assert.Equal(t, "setup", CategorySetup.String())
	assert.Equal(t, "development", CategoryDevelopment.String())
	assert.Equal(t, "deployment", CategoryDeployment.String())
	assert.Equal(t, "maintenance", CategoryMaintenance.String())
}
