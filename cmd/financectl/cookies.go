package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cassiomorais/finance/pkg/client"
)

// savedCookie is the on-disk form of a cookie. The jar does not expose
// expiry, so the server decides when a restored cookie is stale.
type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Path  string `json:"path"`
}

type savedSession struct {
	API     string        `json:"api"`
	SavedAt time.Time     `json:"savedAt"`
	Cookies []savedCookie `json:"cookies"`
}

type cookieStore struct {
	path string
	url  string
}

func (s cookieStore) load(c *client.Client) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if saved.API != s.url {
		return fmt.Errorf("session belongs to %s", saved.API)
	}

	cookies := make([]*http.Cookie, 0, len(saved.Cookies))
	for _, sc := range saved.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: sc.Path})
	}
	c.SetCookies(cookies)
	return nil
}

func (s cookieStore) save(c *client.Client) error {
	cookies := c.Cookies()
	if len(cookies) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	saved := savedSession{API: s.url, SavedAt: time.Now().UTC()}
	for _, ck := range cookies {
		saved.Cookies = append(saved.Cookies, savedCookie{Name: ck.Name, Value: ck.Value, Path: ck.Path})
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
