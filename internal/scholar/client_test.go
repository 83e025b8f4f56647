// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venueQuery() Query {
	return Query{
		Author:           "A. Smith",
		Phrase:           "Learning Analytics",
		YearFrom:         2013,
		YearTo:           2017,
		IncludePatents:   true,
		IncludeCitations: true,
	}
}

func TestClientSearch(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		http.SetCookie(w, &http.Cookie{Name: "GSP", Value: "ID=1", Path: "/"})
		fmt.Fprint(w, resultsPage)
	}))
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c := NewClient(Options{BaseURL: ts.URL, Timeout: time.Second, Jar: jar})
	rs, err := c.Search(context.Background(), venueQuery(), Transport{UserAgent: "test-agent/1.0"})
	require.NoError(t, err)

	assert.Equal(t, 1230, rs.Total)
	assert.Equal(t, "test-agent/1.0", captured.Header.Get("User-Agent"))
	assert.Equal(t, "A. Smith", captured.URL.Query().Get("as_sauthors"))

	u, _ := url.Parse(ts.URL)
	assert.Len(t, jar.Cookies(u), 1, "cookies land in the shared jar")
}

func TestClientSearchDefaultUserAgent(t *testing.T) {
	var ua string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		fmt.Fprint(w, resultsPage)
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	_, err := c.Search(context.Background(), venueQuery(), Transport{})
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, ua)
}

func TestClientSearchBlockedStatus(t *testing.T) {
	for _, code := range []int{http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			c := NewClient(Options{BaseURL: ts.URL})
			rs, err := c.Search(context.Background(), venueQuery(), Transport{})
			assert.ErrorIs(t, err, ErrBlocked)
			assert.Nil(t, rs)
		})
	}
}

func TestClientSearchSorryRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/scholar", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/sorry/index", http.StatusFound)
	})
	mux.HandleFunc("/sorry/index", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>sorry</body></html>")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	_, err := c.Search(context.Background(), venueQuery(), Transport{})
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestClientSearchCaptchaPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><form id="gs_captcha_f"></form></body></html>`)
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	_, err := c.Search(context.Background(), venueQuery(), Transport{})
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestClientSearchServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	_, err := c.Search(context.Background(), venueQuery(), Transport{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBlocked)
}

func TestClientSearchEmptyQuery(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Search(context.Background(), Query{}, Transport{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClientMinInterval(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage)
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL, MinInterval: 20 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Search(context.Background(), venueQuery(), Transport{})
		require.NoError(t, err)
	}
	// The first request is immediate; two more wait one interval each.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestClientReusesConnection(t *testing.T) {
	var conns atomic.Int32
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage)
	}))
	ts.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	ts.Start()
	defer ts.Close()

	before := runtime.NumGoroutine()
	c := NewClient(Options{BaseURL: ts.URL, Timeout: time.Second})
	for i := 0; i < 50; i++ {
		_, err := c.Search(context.Background(), venueQuery(), Transport{UserAgent: fmt.Sprintf("agent/%d", i)})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), conns.Load(), "sequential searches share one connection")

	c.Close()
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 20*time.Millisecond, "connection goroutines exit after Close")
}
