package common_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-registration/internal/common"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Code string `json:"code"`
	}
	cases := []struct {
		name   string
		body   string
		limit  int64
		status int
	}{
		{name: "ok", body: `{"code":"A"}`, limit: 1024},
		{name: "unknown field", body: `{"code":"A","x":1}`, limit: 1024, status: http.StatusBadRequest},
		{name: "empty", body: ``, limit: 1024, status: http.StatusBadRequest},
		{name: "trailing", body: `{"code":"A"}{}`, limit: 1024, status: http.StatusBadRequest},
		{name: "too large", body: `{"code":"` + strings.Repeat("a", 64) + `"}`, limit: 16, status: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst payload
			err := common.DecodeJSON(httptest.NewRecorder(), req, tc.limit, &dst)
			if tc.status == 0 {
				require.NoError(t, err)
				require.Equal(t, "A", dst.Code)
				return
			}
			var appErr *common.AppError
			require.True(t, errors.As(err, &appErr))
			require.Equal(t, tc.status, appErr.HTTPStatus)
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, common.NewAppError("NOT_FOUND", "event not found", http.StatusNotFound, nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"event not found"}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	common.WriteError(rr, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "boom")
}
