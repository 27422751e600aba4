package snapshot

import "testing"

func TestParseCookie(t *testing.T) {
	cases := []struct {
		in        string
		wantName  string
		wantValue string
	}{
		{"", "", ""},
		{"abc123", "SessionId", "abc123"},
		{"session=abc123", "session", "abc123"},
		{" session = abc123 ", "session", "abc123"},
	}
	for _, c := range cases {
		name, value := parseCookie(c.in)
		if name != c.wantName || value != c.wantValue {
			t.Errorf("parseCookie(%q) = (%q, %q), want (%q, %q)", c.in, name, value, c.wantName, c.wantValue)
		}
	}
}

func TestIsPlausibleJPEG(t *testing.T) {
	tiny := append([]byte{0xFF, 0xD8}, append(make([]byte, 4), 0xFF, 0xD9)...)
	if IsPlausibleJPEG(tiny) {
		t.Error("tiny marker-valid blob should fail the minimum-size heuristic")
	}

	big := make([]byte, 1200)
	big[0], big[1] = 0xFF, 0xD8
	big[len(big)-2], big[len(big)-1] = 0xFF, 0xD9
	if !IsPlausibleJPEG(big) {
		t.Error("large marker-valid blob should pass")
	}
}
