package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestAppError_ErrorFormat(t *testing.T) {
	e := New(ErrCodeNotFound, "analysis run not found")
	if got := e.Error(); got != "[COMMON_003] analysis run not found" {
		t.Errorf("unexpected format: %q", got)
	}

	withDetail := e.WithDetail("run_id=abc")
	if !strings.HasSuffix(withDetail.Error(), ": run_id=abc") {
		t.Errorf("detail missing: %q", withDetail.Error())
	}
	// Original must be untouched.
	if e.Detail != "" {
		t.Error("WithDetail mutated the receiver")
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "ignored") != nil {
		t.Error("Wrap(nil) must return nil")
	}
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := New(ErrCodeEmptyCompetitorSet, "competitor yielded no records")
	outer := Wrap(inner, CodeUnknown, "while computing gaps")
	if outer.Code != ErrCodeEmptyCompetitorSet {
		t.Errorf("expected inner code preserved, got %s", outer.Code)
	}
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := New(ErrCodeKeywordMalformed, "empty keyword")
	outer := Wrap(inner, ErrCodeInternal, "normalization failed")

	if !IsCode(outer, ErrCodeKeywordMalformed) {
		t.Error("IsCode must find inner code")
	}
	if IsCode(outer, ErrCodeCacheError) {
		t.Error("IsCode matched a code not in the chain")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic not found", NotFound("x"), true},
		{"snapshot not found", New(ErrCodeSnapshotNotFound, "x"), true},
		{"run not found wrapped", Wrap(New(ErrCodeRunNotFound, "x"), ErrCodeInternal, "y"), true},
		{"validation", NewValidation("x"), false},
		{"plain error", stderrors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != CodeOK {
		t.Error("nil error must map to CodeOK")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Error("plain error must map to CodeUnknown")
	}
	if GetCode(New(ErrCodeInvalidRunConfig, "no competitors")) != ErrCodeInvalidRunConfig {
		t.Error("AppError code not extracted")
	}
}

func TestUnwrap_StdInterop(t *testing.T) {
	root := stderrors.New("connection refused")
	wrapped := Wrap(root, ErrCodeDatabaseError, "query failed")
	if !stderrors.Is(wrapped, root) {
		t.Error("errors.Is must reach the root cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	if ErrCodeInvalidRunConfig.HTTPStatus() != 400 {
		t.Errorf("invalid run config should map to 400")
	}
	if ErrorCode("GAP_999").HTTPStatus() != 500 {
		t.Errorf("unmapped code should default to 500")
	}
}
