// Package auth stores browser cookie sessions so a crawl can start logged in.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "harvest-cli"
	// FallbackDir is the directory, under the home directory, for file-based
	// session storage when no keyring is available
	FallbackDir = ".harvest/sessions"

	manifestKey = "_manifest"
	probeKey    = "_test_keyring_access_"
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrEmptyName       = errors.New("session name cannot be empty")
)

// Session is a named set of cookies captured from a site
type Session struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// NewSession builds a session from cookies read out of the browser. It
// expires with its longest-lived cookie.
func NewSession(name, url string, cookies []*network.Cookie) *Session {
	s := &Session{
		Name:      name,
		URL:       url,
		Cookies:   make([]Cookie, 0, len(cookies)),
		CreatedAt: time.Now(),
	}
	maxExpires := 0.0
	for _, c := range cookies {
		s.Cookies = append(s.Cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
		if c.Expires > maxExpires {
			maxExpires = c.Expires
		}
	}
	if maxExpires > 0 {
		s.ExpiresAt = time.Unix(int64(maxExpires), 0)
	}
	return s
}

// Expired reports whether the session is past its expiry
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// CookieParams converts the stored cookies for loading into a browser
func (s *Session) CookieParams() []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}

// Store persists sessions in the OS keyring, or as files in a directory
// where no keyring is reachable (CI, containers).
type Store struct {
	service string
	dir     string
	useFile bool
	now     func() time.Time
}

// NewFileStore keeps sessions as JSON files in dir
func NewFileStore(dir string) *Store {
	return &Store{dir: dir, useFile: true, now: time.Now}
}

// NewKeyringStore keeps sessions in the OS keyring under service
func NewKeyringStore(service string) *Store {
	return &Store{service: service, now: time.Now}
}

// DefaultStore picks the keyring when it works and falls back to files
// under the home directory otherwise.
func DefaultStore() (*Store, error) {
	if os.Getenv("CODESPACES") == "" && os.Getenv("CI") == "" && keyringAvailable(KeyringService) {
		return NewKeyringStore(KeyringService), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return NewFileStore(filepath.Join(home, FallbackDir)), nil
}

func keyringAvailable(service string) bool {
	if err := keyring.Set(service, probeKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(service, probeKey)
	return true
}

// Backend names where sessions are kept
func (st *Store) Backend() string {
	if st.useFile {
		return "file:" + st.dir
	}
	return "keyring:" + st.service
}

func (st *Store) path(name string) (string, error) {
	if err := os.MkdirAll(st.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return filepath.Join(st.dir, name+".json"), nil
}

// Save writes the session, replacing any with the same name
func (st *Store) Save(s *Session) error {
	if s.Name == "" {
		return ErrEmptyName
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if st.useFile {
		path, err := st.path(s.Name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(st.service, s.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return st.updateManifest(s.Name, true)
}

// Load reads a session. Expired sessions are reported as ErrSessionExpired.
func (st *Store) Load(name string) (*Session, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var data []byte
	if st.useFile {
		path, err := st.path(name)
		if err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
	} else {
		raw, err := keyring.Get(st.service, name)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		data = []byte(raw)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}
	if s.Expired(st.now()) {
		return &s, fmt.Errorf("%w: %s", ErrSessionExpired, name)
	}
	return &s, nil
}

// Delete removes a session; deleting a missing session is not an error
func (st *Store) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	if st.useFile {
		path, err := st.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(st.service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return st.updateManifest(name, false)
}

// List returns the stored session names in sorted order
func (st *Store) List() ([]string, error) {
	if st.useFile {
		entries, err := os.ReadDir(st.dir)
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		if err != nil {
			return nil, err
		}
		names := []string{}
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
				names = append(names, strings.TrimSuffix(e.Name(), ".json"))
			}
		}
		sort.Strings(names)
		return names, nil
	}

	// The keyring cannot be enumerated, so names are tracked in a manifest.
	raw, err := keyring.Get(st.service, manifestKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// updateManifest adds or removes name from the keyring manifest
func (st *Store) updateManifest(name string, add bool) error {
	names, err := st.List()
	if err != nil {
		return err
	}
	out := make([]string, 0, len(names)+1)
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	if add {
		out = append(out, name)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return keyring.Set(st.service, manifestKey, string(data))
}
