// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cookies provides a cookie jar shared by the Scholar client and the
// decoy browser, persisted to a YAML file between runs.
package cookies

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

// Jar is an http.CookieJar that keeps the attributes of every cookie it
// accepts so they can be written out. cookiejar.Jar only hands back name and
// value.
type Jar struct {
	jar *cookiejar.Jar
	now func() time.Time

	mu      sync.Mutex
	records map[string]entry
}

var _ http.CookieJar = (*Jar)(nil)

// New returns an empty jar.
func New() (*Jar, error) {
	j, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Jar{jar: j, now: time.Now, records: make(map[string]entry)}, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.jar.SetCookies(u, cookies)

	now := j.now()
	host := strings.ToLower(u.Hostname())
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		e := entry{
			URL:      (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String(),
			Name:     c.Name,
			Value:    c.Value,
			Domain:   strings.ToLower(strings.TrimPrefix(c.Domain, ".")),
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if e.Path == "" || e.Path[0] != '/' {
			e.Path = defaultPath(u.Path)
		}
		domain := e.Domain
		if domain == "" {
			domain = host
		}
		key := domain + ";" + e.Path + ";" + e.Name

		switch {
		case c.MaxAge < 0:
			delete(j.records, key)
			continue
		case c.MaxAge > 0:
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second).UTC()
		case !c.Expires.IsZero():
			if !c.Expires.After(now) {
				delete(j.records, key)
				continue
			}
			e.Expires = c.Expires.UTC()
		}
		j.records[key] = e
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// defaultPath is the RFC 6265 default-path of a request path.
func defaultPath(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

type entry struct {
	URL      string    `yaml:"url"`
	Name     string    `yaml:"name"`
	Value    string    `yaml:"value"`
	Domain   string    `yaml:"domain,omitempty"`
	Path     string    `yaml:"path"`
	Secure   bool      `yaml:"secure,omitempty"`
	HTTPOnly bool      `yaml:"http_only,omitempty"`
	Expires  time.Time `yaml:"expires,omitempty"`
}

type file struct {
	Cookies []entry `yaml:"cookies"`
}

// Load restores cookies saved by Save, skipping any that expired since. A
// missing file leaves the jar empty.
func (j *Jar) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cookie file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing cookie file %s: %w", path, err)
	}

	now := j.now()
	for _, e := range f.Cookies {
		if !e.Expires.IsZero() && !e.Expires.After(now) {
			continue
		}
		u, err := url.Parse(e.URL)
		if err != nil {
			return fmt.Errorf("cookie file %s: bad url %q: %w", path, e.URL, err)
		}
		if e.Path == "" {
			e.Path = "/"
		}
		j.SetCookies(u, []*http.Cookie{{
			Name:     e.Name,
			Value:    e.Value,
			Domain:   e.Domain,
			Path:     e.Path,
			Secure:   e.Secure,
			HttpOnly: e.HTTPOnly,
			Expires:  e.Expires,
		}})
	}
	return nil
}

// Save writes every unexpired cookie the jar still holds, with its domain,
// path, and expiry.
func (j *Jar) Save(path string) error {
	j.mu.Lock()
	keys := make([]string, 0, len(j.records))
	for k := range j.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]entry, len(keys))
	for i, k := range keys {
		entries[i] = j.records[k]
	}
	j.mu.Unlock()

	now := j.now()
	var f file
	for _, e := range entries {
		if !e.Expires.IsZero() && !e.Expires.After(now) {
			continue
		}
		if !j.holds(e) {
			continue
		}
		f.Cookies = append(f.Cookies, e)
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshaling cookies: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cookie directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing cookie file: %w", err)
	}
	return nil
}

// holds reports whether the underlying jar accepted e and still sends it.
func (j *Jar) holds(e entry) bool {
	origin, err := url.Parse(e.URL)
	if err != nil {
		return false
	}
	target := &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: e.Path}
	if e.Secure {
		target.Scheme = "https"
	}
	for _, c := range j.jar.Cookies(target) {
		if c.Name == e.Name && c.Value == e.Value {
			return true
		}
	}
	return false
}
