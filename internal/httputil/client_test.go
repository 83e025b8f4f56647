// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare host port", "10.0.0.1:8080", "http://10.0.0.1:8080", false},
		{"trimmed", "  10.0.0.1:8080 ", "http://10.0.0.1:8080", false},
		{"socks5", "socks5://10.0.0.1:1080", "socks5://10.0.0.1:1080", false},
		{"https", "https://proxy.example.com:443", "https://proxy.example.com:443", false},
		{"empty", "", "", true},
		{"no port", "http://proxy.example.com", "", true},
		{"bad scheme", "ftp://10.0.0.1:21", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ProxyURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestNewClientDirect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "NID", Value: "abc"})
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client, err := NewClient(time.Second, "", jar)
	require.NoError(t, err)
	assert.Equal(t, time.Second, client.Timeout)

	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	assert.Len(t, jar.Cookies(req.URL), 1)
}

func TestNewClientThroughProxy(t *testing.T) {
	var sawAbsoluteURI bool
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A forward proxy receives the absolute target URL.
		sawAbsoluteURI = r.URL.IsAbs()
		w.WriteHeader(http.StatusOK)
	}))
	defer proxy.Close()

	client, err := NewClient(time.Second, proxy.Listener.Addr().String(), nil)
	require.NoError(t, err)

	resp, err := client.Get("http://scholar.example.invalid/scholar")
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, sawAbsoluteURI)
}

func TestNewClientDefaultsTimeout(t *testing.T) {
	client, err := NewClient(0, "", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, client.Timeout)
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	_, err := NewClient(time.Second, "ftp://x:1", nil)
	assert.Error(t, err)
}
