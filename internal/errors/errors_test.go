package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	err := ConfigErrorf("unknown period %q", "last_week")

	assert.True(t, IsConfig(err))
	assert.False(t, IsDataQuality(err))
	assert.Equal(t, `unknown period "last_week"`, err.Error())
}

func TestDataQualityError(t *testing.T) {
	err := DataQualityErrorf("commit %s: missing author", "abc123")

	assert.True(t, IsDataQuality(err))
	assert.False(t, IsConfig(err))
	assert.Equal(t, ErrorTypeDataQuality, GetType(err))
}

func TestWrappedErrorsKeepType(t *testing.T) {
	cause := stderrors.New("missing closing )")
	err := fmt.Errorf("load settings: %w", WrapConfig(cause, "compile conventional pattern"))

	assert.True(t, IsConfig(err))
	assert.Equal(t, ErrorTypeConfig, GetType(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "compile conventional pattern: missing closing )")
}

func TestIsMatchesOnType(t *testing.T) {
	a := ConfigError("a")
	b := ConfigError("b")
	c := DataQualityErrorf("c")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeDatabase, "noop"))
}

func TestDetailedString(t *testing.T) {
	err := DataQualityErrorf("total_changes mismatch").
		WithContext("sha", "abc123").
		WithContext("reason", "total_changes_mismatch")
	out := err.DetailedString()

	assert.Contains(t, out, "[DATA_QUALITY] total_changes mismatch")
	assert.Contains(t, out, "  reason: total_changes_mismatch\n  sha: abc123\n")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", ConfigError("bad period"), 2},
		{"wrapped config", fmt.Errorf("report: %w", ConfigError("bad period")), 2},
		{"database", DatabaseError(stderrors.New("locked"), "query commits"), 1},
		{"plain", stderrors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
