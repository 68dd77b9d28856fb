package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2beens/fitmate/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainAndCloseRequest_DrainsUnreadBody(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(`{"message": "left unread"}`)}

	called := false
	handler := middleware.DrainAndCloseRequest(middleware.MaxRequestBodyBytes)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/users/u1/chat", nil)
	req.Body = body
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, body.closed)

	rest, err := io.ReadAll(body.Reader)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestDrainAndCloseRequest_BodyTooLarge(t *testing.T) {
	var readErr error
	handler := middleware.DrainAndCloseRequest(8)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusBadRequest)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/users/u1/chat", strings.NewReader(`{"message": "way too long"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var maxBytesErr *http.MaxBytesError
	require.Error(t, readErr)
	assert.True(t, errors.As(readErr, &maxBytesErr))
	assert.Equal(t, int64(8), maxBytesErr.Limit)
}
