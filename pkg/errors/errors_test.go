package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"survey not found", errors.ErrCodeSurveyNotFound, "no survey for Rampur|2024-2025"},
		{"invalid year", errors.ErrCodeInvalidFiscalYear, "2024-2026 is not a financial year"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInvalidFilter, "unknown district")
	assert.Equal(t, "[SRV_003] unknown district", ae.Error())
	assert.Equal(t, "[SRV_003] unknown district: Cuttack", ae.WithDetail("Cuttack").Error())
}

func TestNewf(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeSurveyNotFound, "no survey for %s", "Rampur|2024-2025")
	assert.Equal(t, "no survey for Rampur|2024-2025", ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.ErrCodeDatabaseError, "failed to list surveys")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, root, ae.Unwrap())
}

func TestWrap_UnknownCodePreservesInnerCode(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeSurveyNotFound, "missing")
	outer := errors.Wrap(inner, errors.CodeUnknown, "loading record")

	assert.Equal(t, errors.ErrCodeSurveyNotFound, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builders
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := errors.New(errors.ErrCodeExportFailed, "export failed")
	detailed := base.WithDetail("bucket=exports")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "bucket=exports", detailed.Detail)
}

func TestWithCause_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInvalidSubmission, "gpName is required")
	wrapped := fmt.Errorf("submit: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeInvalidSubmission))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeInvalidFilter))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInvalidFilter))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(fmt.Errorf("ctx: %w", errors.New(errors.ErrCodeSurveyNotFound, "x"))))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
	assert.False(t, errors.IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(errors.InvalidParam("bad")))
}

func TestAppError_HTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 404, errors.New(errors.ErrCodeSurveyNotFound, "x").HTTPStatus())
	assert.Equal(t, 422, errors.New(errors.ErrCodeInvalidSubmission, "x").HTTPStatus())
}

//Personal.AI order the ending
