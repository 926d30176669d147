package id

import "testing"

func TestRequestIDUnique(t *testing.T) {
	a := RequestID()
	b := RequestID()
	if a == "" || a == b {
		t.Fatalf("ids should be non-empty and distinct: %q %q", a, b)
	}
}

func TestShort(t *testing.T) {
	if got := Short("abcd1234-ef00-4000-8000-000000000000"); got != "abcd1234" {
		t.Fatalf("short: %q", got)
	}
	if got := Short("nodash"); got != "nodash" {
		t.Fatalf("short passthrough: %q", got)
	}
}
