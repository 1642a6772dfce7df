package auth

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ImportFormats lists the cookie formats ReadCookies accepts
var ImportFormats = []string{"json", "netscape"}

// ReadCookies parses cookies exported from a desktop browser or curl
func ReadCookies(r io.Reader, format string) ([]Cookie, error) {
	switch strings.ToLower(format) {
	case "json":
		return readJSONCookies(r)
	case "netscape":
		return readNetscapeCookies(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use: %s)", format, strings.Join(ImportFormats, ", "))
	}
}

// readJSONCookies reads an array in the shape browser extensions export
func readJSONCookies(r io.Reader) ([]Cookie, error) {
	var cookies []Cookie
	if err := json.NewDecoder(r).Decode(&cookies); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return cookies, nil
}

// readNetscapeCookies reads the tab separated cookies.txt format:
// domain, subdomains flag, path, secure, expiry, name, value.
func readNetscapeCookies(r io.Reader) ([]Cookie, error) {
	var cookies []Cookie
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		httpOnly := false
		if rest, ok := strings.CutPrefix(line, "#HttpOnly_"); ok {
			line, httpOnly = rest, true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 7 {
			continue
		}

		cookie := Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    strings.Join(fields[6:], " "),
			HTTPOnly: httpOnly,
		}
		if exp, err := strconv.ParseInt(fields[4], 10, 64); err == nil && exp > 0 {
			cookie.Expires = float64(exp)
		}

		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}

// ImportSession builds a session from imported cookies. It expires with
// its last persistent cookie.
func ImportSession(name, url string, cookies []Cookie) *Session {
	s := &Session{Name: name, URL: url, Cookies: cookies, CreatedAt: time.Now()}
	maxExpires := 0.0
	for _, c := range cookies {
		if c.Expires > maxExpires {
			maxExpires = c.Expires
		}
	}
	if maxExpires > 0 {
		s.ExpiresAt = time.Unix(int64(maxExpires), 0)
	}
	return s
}
