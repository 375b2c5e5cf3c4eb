package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hillclimb/internal/logging"
)

var errBase = stderrors.New("base failure")

func TestWrapKeepsChain(t *testing.T) {
	err := Wrap(errBase, "save result").WithOperation("Save").WithComponent("store")

	assert.Equal(t, "save result: operation=Save, component=store: base failure", err.Error())
	assert.True(t, Is(err, errBase))
	assert.True(t, stderrors.Is(err, errBase))
	assert.Equal(t, errBase, Unwrap(err))
	assert.NotEmpty(t, err.StackTrace())

	var target *Error
	require.True(t, As(err, &target))
	assert.Equal(t, "Save", target.Operation)
}

func TestWrapDoesNotMutateInner(t *testing.T) {
	inner := New("inner")
	outer := Wrapf(inner, "outer %d", 1)

	assert.Equal(t, "inner", inner.Message)
	assert.Equal(t, "outer 1", outer.Message)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, Is(outer, inner))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
	assert.False(t, As(nil, new(*Error)))
}

func TestErrorf(t *testing.T) {
	err := Errorf("job %s not found", "tsp_1")
	assert.Equal(t, "job tsp_1 not found", err.Error())
}

func TestKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"nil", nil, KindInternal, http.StatusOK},
		{"plain", errBase, KindInternal, http.StatusInternalServerError},
		{"invalid", Invalid("bad %s", "matrix"), KindInvalid, http.StatusBadRequest},
		{"not found", NotFound("job %s", "x"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("done"), KindConflict, http.StatusConflict},
		{"wrapped keeps kind", Wrap(NotFound("job"), "status"), KindNotFound, http.StatusNotFound},
		{"wrapped overrides kind", Wrap(errBase, "decode").WithKind(KindInvalid), KindInvalid, http.StatusBadRequest},
		{"std wrapped", fmt.Errorf("outer: %w", Conflict("x")), KindConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}

	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "internal", Kind(42).String())
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.ErrorLevel, &buf)

	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "Recovered from panic")
	assert.Contains(t, buf.String(), "/api/v1/status/x")
}

func TestErrorHandlerLogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.ErrorLevel, &buf)

	status := http.StatusNotFound
	h := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, buf.String())

	status = http.StatusInternalServerError
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Request error")
	assert.Contains(t, buf.String(), "/broken")
}
