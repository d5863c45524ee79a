package cli

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

// TestExitCodeForError verifies the error-to-exit-code mapping.
func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error returns success",
			err:  nil,
			want: ExitSuccess,
		},
		{
			name: "generic error returns 1",
			err:  stderrors.New("something broke"),
			want: ExitError,
		},
		{
			name: "exit code 2 wrapper returns 2",
			err:  loomerrors.NewExitCode2Error(stderrors.New("bad input")),
			want: ExitInvalidInput,
		},
		{
			name: "wrapped exit code 2 returns 2",
			err:  loomerrors.Wrap(loomerrors.NewExitCode2Error(stderrors.New("bad input")), "context"),
			want: ExitInvalidInput,
		},
		{
			name: "invalid output format returns 2",
			err:  loomerrors.ErrInvalidOutputFormat,
			want: ExitInvalidInput,
		},
		{
			name: "unknown flag returns 2",
			err:  stderrors.New("unknown flag: --bogus"),
			want: ExitInvalidInput,
		},
		{
			name: "unknown shorthand flag returns 2",
			err:  stderrors.New("unknown shorthand flag: 'x' in -x"),
			want: ExitInvalidInput,
		},
		{
			name: "mutually exclusive flags returns 2",
			err:  stderrors.New("if any flags in the group [verbose quiet] are set none of the others can be"),
			want: ExitInvalidInput,
		},
		{
			name: "unknown command returns 2",
			err:  stderrors.New(`unknown command "frobnicate" for "loom"`),
			want: ExitInvalidInput,
		},
		{
			name: "guard exhaustion returns 1",
			err:  loomerrors.ErrMaxRetriesExceeded,
			want: ExitError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

// TestIsValidOutputFormat verifies output format validation.
func TestIsValidOutputFormat(t *testing.T) {
	assert.True(t, IsValidOutputFormat(OutputText))
	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
	assert.False(t, IsValidOutputFormat("JSON"))
}

// TestValidOutputFormats verifies both supported formats are listed.
func TestValidOutputFormats(t *testing.T) {
	formats := ValidOutputFormats()

	assert.Contains(t, formats, OutputText)
	assert.Contains(t, formats, OutputJSON)
	assert.Len(t, formats, 2)
}
