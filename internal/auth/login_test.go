package auth

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/law-makers/harvest/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginURL = "https://example.com/login"

func TestLogin_WaitSelector(t *testing.T) {
	s := browsertest.NewSession()
	s.AddPage(loginURL, browsertest.PageFixture{})
	s.Visible["#account"] = true

	page, err := s.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, page.SetCookies(context.Background(), []*network.CookieParam{{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"}}))
	page.Close()

	sess, err := Login(context.Background(), s, LoginOptions{SessionName: "news", URL: loginURL, WaitSelector: "#account", Timeout: time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, "news", sess.Name)
	require.Len(t, sess.Cookies, 1)
	assert.Equal(t, "sid", sess.Cookies[0].Name)

	opened, closed := s.PageCounts()
	assert.Equal(t, opened, closed)
}

func TestLogin_ConfirmAndNoCookies(t *testing.T) {
	s := browsertest.NewSession()
	s.AddPage(loginURL, browsertest.PageFixture{})

	confirmed := false
	_, err := Login(context.Background(), s, LoginOptions{SessionName: "news", URL: loginURL}, func(context.Context) error {
		confirmed = true
		return nil
	})
	assert.True(t, confirmed)
	assert.ErrorIs(t, err, ErrNoCookies)
}

func TestLogin_Validation(t *testing.T) {
	s := browsertest.NewSession()
	_, err := Login(context.Background(), s, LoginOptions{URL: loginURL}, nil)
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = Login(context.Background(), s, LoginOptions{SessionName: "x"}, nil)
	assert.Error(t, err)
	_, err = Login(context.Background(), s, LoginOptions{SessionName: "x", URL: "https://nowhere.example"}, nil)
	assert.Error(t, err)
}
