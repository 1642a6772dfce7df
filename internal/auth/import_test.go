package auth

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCookies_Netscape(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Unix()
	in := "# Netscape HTTP Cookie File\n\n" +
		".example.com\tTRUE\t/\tTRUE\t" + strconv.FormatInt(exp, 10) + "\tsid\tabc\n" +
		"#HttpOnly_.example.com\tTRUE\t/\tFALSE\t0\ttoken\txyz\n" +
		"broken line\n"

	cookies, err := ReadCookies(strings.NewReader(in), "netscape")
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, float64(exp), cookies[0].Expires)
	assert.Equal(t, "token", cookies[1].Name)
	assert.True(t, cookies[1].HTTPOnly)
	assert.Zero(t, cookies[1].Expires)

	s := ImportSession("news", "https://example.com", cookies)
	assert.Equal(t, exp, s.ExpiresAt.Unix())
}

func TestReadCookies_JSON(t *testing.T) {
	cookies, err := ReadCookies(strings.NewReader(`[{"name":"sid","value":"abc","domain":"example.com","path":"/","httpOnly":true}]`), "JSON")
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HTTPOnly)

	s := ImportSession("news", "https://example.com", cookies)
	assert.True(t, s.ExpiresAt.IsZero())

	_, err = ReadCookies(strings.NewReader(`{`), "json")
	assert.Error(t, err)
}

func TestReadCookies_UnknownFormat(t *testing.T) {
	_, err := ReadCookies(strings.NewReader(""), "har")
	assert.Error(t, err)
}
