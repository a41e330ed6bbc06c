// Package state keeps the client's local state between runs: the signed-in session
// and the theme preference.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"
)

const (
	keySession = "session"
	keyTheme   = "theme"
)

// DefaultDir is used when no state_dir is configured.
const DefaultDir = "~/.config/studyflow"

// Session is what survives a restart of the client.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
}

// Expired reports whether the token is missing or past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return s.AccessToken == "" || !now.Before(s.ExpiresAt)
}

// Cache is a flat key/value directory.
type Cache struct {
	d   *diskv.Diskv
	dir string
}

// Open uses dir, expanding a leading "~".
func Open(dir string) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir
	}
	path, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	return &Cache{
		d: diskv.New(diskv.Options{
			BasePath:     path,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 64 * 1024,
			PathPerm:     0o700,
			FilePerm:     0o600,
		}),
		dir: path,
	}, nil
}

// Dir is the expanded state directory.
func (c *Cache) Dir() string { return c.dir }

// Session returns the stored session. ok is false if none is stored.
func (c *Cache) Session() (s Session, ok bool, err error) {
	if !c.d.Has(keySession) {
		return Session{}, false, nil
	}
	b, err := c.d.Read(keySession)
	if err != nil {
		return Session{}, false, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

// SaveSession stores s, replacing any previous session.
func (c *Cache) SaveSession(s Session) error {
	if s.AccessToken == "" {
		return errors.New("empty access token")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.d.Write(keySession, b)
}

// ClearSession forgets the stored session. Clearing an empty cache is not an error.
func (c *Cache) ClearSession() error {
	if !c.d.Has(keySession) {
		return nil
	}
	return c.d.Erase(keySession)
}

// Theme returns the stored theme or "".
func (c *Cache) Theme() (string, error) {
	if !c.d.Has(keyTheme) {
		return "", nil
	}
	b, err := c.d.Read(keyTheme)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetTheme stores the theme name.
func (c *Cache) SetTheme(t string) error {
	return c.d.Write(keyTheme, []byte(t))
}
