package headers

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	in := []string{"accept-language: de-DE", "X-Token:abc", "Referer: https://example.com/a:b", "x-token: def"}
	out, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{
		"Accept-Language": "de-DE",
		"X-Token":         "def",
		"Referer":         "https://example.com/a:b",
	}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"BadHeader", ": value", "Bad Key: v"} {
		if _, err := Parse([]string{in}); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
