// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cookies

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cookies.yaml")
	u := mustURL(t, "https://scholar.google.com/scholar?q=x")

	j, err := New()
	require.NoError(t, err)
	j.SetCookies(u, []*http.Cookie{{Name: "GSP", Value: "ID=abc", Path: "/"}})
	require.NoError(t, j.Save(path))

	restored, err := New()
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))

	got := restored.Cookies(mustURL(t, "https://scholar.google.com/"))
	require.Len(t, got, 1)
	assert.Equal(t, "GSP", got[0].Name)
	assert.Equal(t, "ID=abc", got[0].Value)
}

func TestLoadMissingFile(t *testing.T) {
	j, err := New()
	require.NoError(t, err)
	assert.NoError(t, j.Load(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cookies: [::"), 0o600))

	j, err := New()
	require.NoError(t, err)
	assert.Error(t, j.Load(path))
}

func TestSetCookiesIgnoresEmpty(t *testing.T) {
	j, err := New()
	require.NoError(t, err)
	j.SetCookies(mustURL(t, "https://example.com/"), nil)
	assert.Empty(t, j.records)
}

func names(cs []*http.Cookie) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestSaveLoadKeepsAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.yaml")
	future := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	j, err := New()
	require.NoError(t, err)
	j.SetCookies(mustURL(t, "https://scholar.google.com/scholar?q=x"), []*http.Cookie{
		{Name: "NID", Value: "n", Domain: ".google.com", Path: "/", Expires: future},
		{Name: "CIT", Value: "c", Path: "/citations"},
		{Name: "SEC", Value: "s", Path: "/", Secure: true, MaxAge: 3600},
	})
	require.NoError(t, j.Save(path))

	restored, err := New()
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))

	assert.Contains(t, names(restored.Cookies(mustURL(t, "https://www.google.com/"))), "NID",
		"domain cookie still covers sibling hosts")
	assert.Contains(t, names(restored.Cookies(mustURL(t, "https://scholar.google.com/citations/user"))), "CIT")
	assert.NotContains(t, names(restored.Cookies(mustURL(t, "https://scholar.google.com/scholar"))), "CIT",
		"path-scoped cookie stays scoped")
	assert.NotContains(t, names(restored.Cookies(mustURL(t, "http://scholar.google.com/"))), "SEC")
	assert.Contains(t, names(restored.Cookies(mustURL(t, "https://scholar.google.com/"))), "SEC")

	key := "google.com;/;NID"
	require.Contains(t, restored.records, key)
	assert.True(t, restored.records[key].Expires.Equal(future))
}

func TestSaveDropsDeletedCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.yaml")
	u := mustURL(t, "https://scholar.google.com/")

	j, err := New()
	require.NoError(t, err)
	j.SetCookies(u, []*http.Cookie{
		{Name: "KEEP", Value: "1", Path: "/"},
		{Name: "GONE", Value: "1", Path: "/"},
	})
	j.SetCookies(u, []*http.Cookie{{Name: "GONE", Value: "", Path: "/", MaxAge: -1}})
	require.NoError(t, j.Save(path))

	restored, err := New()
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))
	assert.Equal(t, []string{"KEEP"}, names(restored.Cookies(u)))
}

func TestLoadSkipsExpiredEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.yaml")
	data := "cookies:\n" +
		"  - url: https://scholar.google.com/\n    name: OLD\n    value: o\n    path: /\n    expires: 2001-01-01T00:00:00Z\n" +
		"  - url: https://scholar.google.com/\n    name: NEW\n    value: n\n    path: /\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	j, err := New()
	require.NoError(t, err)
	require.NoError(t, j.Load(path))
	assert.Equal(t, []string{"NEW"}, names(j.Cookies(mustURL(t, "https://scholar.google.com/"))))
}
