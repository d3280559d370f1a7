package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndValidateURLParam(t *testing.T) {
	t.Parallel()

	routerTests := []struct {
		name       string
		paramValue string
		wantValue  string
		wantErrMsg string
	}{
		{name: "lhdn uuid", paramValue: "F9D425P6DS7D8IU", wantValue: "F9D425P6DS7D8IU"},
		{name: "dashed uuid", paramValue: "3b7c1a2e-9f2d-4c1b-8f6e-1a2b3c4d5e6f", wantValue: "3b7c1a2e-9f2d-4c1b-8f6e-1a2b3c4d5e6f"},
		{name: "encoded slash", paramValue: "INV%2F2024%2F001", wantValue: "INV/2024/001"},
		{name: "encoded plus", paramValue: "A%2BB", wantValue: "A+B"},
		{name: "encoded space only", paramValue: "%20%20", wantErrMsg: "uuid cannot be empty"},
		{name: "tab only", paramValue: "%09", wantErrMsg: "uuid cannot be empty"},
		{name: "space in middle", paramValue: "ABC%20DEF", wantErrMsg: "uuid cannot contain whitespace"},
		{name: "newline in middle", paramValue: "ABC%0ADEF", wantErrMsg: "uuid cannot contain whitespace"},
		{name: "leading space", paramValue: "%20ABC", wantErrMsg: "uuid cannot contain whitespace"},
		{name: "non-breaking space", paramValue: "ABC%C2%A0DEF", wantErrMsg: "uuid cannot contain whitespace"},
		{name: "control character", paramValue: "ABC%00DEF", wantErrMsg: "uuid cannot contain control characters"},
		{name: "at length limit", paramValue: strings.Repeat("A", MaxURLParamLength), wantValue: strings.Repeat("A", MaxURLParamLength)},
		{name: "too long", paramValue: strings.Repeat("A", MaxURLParamLength+1), wantErrMsg: "uuid must be at most 128 characters"},
	}

	for _, tt := range routerTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			router.Get("/documents/{uuid}", func(_ http.ResponseWriter, r *http.Request) {
				value, err := GetAndValidateURLParam(r, "uuid")
				if tt.wantErrMsg != "" {
					require.EqualError(t, err, tt.wantErrMsg)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, value)
			})

			req, err := http.NewRequest(http.MethodGet, "/documents/"+tt.paramValue, nil)
			require.NoError(t, err)
			router.ServeHTTP(httptest.NewRecorder(), req)
		})
	}

	// chi refuses to route malformed escapes, so these go through the route context directly
	for _, raw := range []string{"ABC%2", "ABC%ZZ", "ABC%"} {
		t.Run("invalid encoding "+raw, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/documents/x", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uuid", raw)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			_, err := GetAndValidateURLParam(req, "uuid")
			require.EqualError(t, err, "invalid URL encoding in uuid")
		})
	}
}
