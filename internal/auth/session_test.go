package auth

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func sampleSession(name string) *Session {
	return NewSession(name, "https://example.com/login", []*network.Cookie{
		{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", Expires: float64(time.Now().Add(time.Hour).Unix()), HTTPOnly: true, Secure: true, SameSite: network.CookieSameSiteLax},
		{Name: "pref", Value: "dark", Domain: "example.com", Path: "/", Expires: -1},
	})
}

func TestNewSession(t *testing.T) {
	s := sampleSession("news")
	require.Len(t, s.Cookies, 2)
	assert.Equal(t, "Lax", s.Cookies[0].SameSite)
	assert.False(t, s.ExpiresAt.IsZero())
	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(time.Now().Add(2*time.Hour)))

	params := s.CookieParams()
	require.Len(t, params, 2)
	assert.Equal(t, "sid", params[0].Name)
	assert.Equal(t, network.CookieSameSiteLax, params[0].SameSite)
	assert.NotNil(t, params[0].Expires)
	assert.Nil(t, params[1].Expires)
}

func testStores(t *testing.T) map[string]*Store {
	keyring.MockInit()
	return map[string]*Store{
		"file":    NewFileStore(t.TempDir()),
		"keyring": NewKeyringStore("harvest-test"),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(sampleSession("beta")))
			require.NoError(t, st.Save(sampleSession("alpha")))

			names, err := st.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "beta"}, names)

			got, err := st.Load("alpha")
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/login", got.URL)
			assert.Len(t, got.Cookies, 2)

			require.NoError(t, st.Delete("alpha"))
			require.NoError(t, st.Delete("alpha"))
			names, err = st.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"beta"}, names)

			_, err = st.Load("alpha")
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestStore_Expired(t *testing.T) {
	st := NewFileStore(t.TempDir())
	s := sampleSession("old")
	s.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, st.Save(s))

	got, err := st.Load("old")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.NotNil(t, got)
}

func TestStore_EmptyName(t *testing.T) {
	st := NewFileStore(t.TempDir())
	assert.ErrorIs(t, st.Save(&Session{}), ErrEmptyName)
	_, err := st.Load("")
	assert.ErrorIs(t, err, ErrEmptyName)
	assert.ErrorIs(t, st.Delete(""), ErrEmptyName)
}

func TestStore_ListMissingDir(t *testing.T) {
	st := NewFileStore(t.TempDir() + "/nope")
	names, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
