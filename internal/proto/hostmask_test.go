package proto

import "testing"

func TestNewHostmask(t *testing.T) {
	hm, err := NewHostmask("nick", "user", "host.example.org")
	if err != nil {
		t.Fatalf("NewHostmask failed: %v", err)
	}
	if hm.Nick != "nick" || hm.User != "user" || hm.Host != "host.example.org" {
		t.Errorf("unexpected hostmask: %+v", hm)
	}
}

func TestNewHostmaskInvalid(t *testing.T) {
	cases := []struct {
		name             string
		nick, user, host string
	}{
		{"empty nick", "", "user", "host"},
		{"bang in nick", "ni!ck", "user", "host"},
		{"at in nick", "ni@ck", "user", "host"},
		{"space in host", "nick", "user", "ho st"},
		{"newline in user", "nick", "us\ner", "host"},
		{"nul in nick", "ni\x00ck", "user", "host"},
	}
	for _, tc := range cases {
		if _, err := NewHostmask(tc.nick, tc.user, tc.host); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

func TestHostmaskString(t *testing.T) {
	hm := Hostmask{Nick: "nick", User: "user", Host: "host"}
	if got := hm.String(); got != "nick!user@host" {
		t.Errorf("String() = %q, want %q", got, "nick!user@host")
	}

	// Separators inside fields must not produce an ambiguous string.
	dirty := Hostmask{Nick: "a!b", User: "c@d", Host: "host"}
	if got := dirty.String(); got != "a_b!c_d@host" {
		t.Errorf("String() = %q, want %q", got, "a_b!c_d@host")
	}
}

func TestParsePrefix(t *testing.T) {
	cases := []struct {
		in   string
		want Hostmask
	}{
		{"nick!user@host", Hostmask{"nick", "user", "host"}},
		{"irc.example.org", Hostmask{"irc.example.org", "irc.example.org", "irc.example.org"}},
		{"nick!user", Hostmask{"nick", "user", "user"}},
		{"nick@host", Hostmask{"nick", "nick", "host"}},
	}
	for _, tc := range cases {
		if got := ParsePrefix(tc.in); got != tc.want {
			t.Errorf("ParsePrefix(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestHostmaskEquality(t *testing.T) {
	a := Hostmask{"nick", "user", "host"}
	b := Hostmask{"nick", "user", "host"}
	if a != b {
		t.Error("identical hostmasks compare unequal")
	}
	m := map[Hostmask]bool{a: true}
	if !m[b] {
		t.Error("hostmask not usable as a map key")
	}
}

func TestIsServer(t *testing.T) {
	if !ParsePrefix("irc.example.org").IsServer() {
		t.Error("server prefix not detected")
	}
	if ParsePrefix("nick!user@host").IsServer() {
		t.Error("user prefix misdetected as server")
	}
	if (Hostmask{}).IsServer() {
		t.Error("zero hostmask misdetected as server")
	}
}
