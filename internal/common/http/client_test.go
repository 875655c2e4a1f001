package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := NewClient(time.Second).WithBearerToken("secret").
		PostJSON(context.Background(), srv.URL, map[string]string{"q": "заказ"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "заказ", out.Echo)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestPostJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model loading", http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
				assert.Equal(t, "model loading", se.Body)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			check: func(t *testing.T, err error) {
				var de *DecodeError
				assert.True(t, errors.As(err, &de))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var out map[string]interface{}
			err := NewClient(time.Second).PostJSON(context.Background(), srv.URL, struct{}{}, &out)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestPostJSON_NoBearerWhenEmpty(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	var out map[string]interface{}
	require.NoError(t, NewClient(0).WithBearerToken("").PostJSON(context.Background(), srv.URL, struct{}{}, &out))
	assert.False(t, hadAuth)
}
