package proto

import "testing"

func TestDecodeTags(t *testing.T) {
	tags := DecodeTags("tag1;tag2=tag-data", ';')
	if !tags.IsFlag("tag1") {
		t.Error("tag1 should be a boolean flag")
	}
	if v, ok := tags.Get("tag2"); !ok || v != "tag-data" {
		t.Errorf("tag2 = %q, %v; want %q, true", v, ok, "tag-data")
	}
	if tags.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tags.Len())
	}
}

func TestDecodeTagsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		if got := DecodeTags(in, ';'); got.Len() != 0 {
			t.Errorf("DecodeTags(%q) has %d entries, want 0", in, got.Len())
		}
	}
}

func TestDecodeTagsEscapes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"k=a\\:b", "a;b"},
		{"k=a\\sb", "a b"},
		{"k=a\\rb", "a\rb"},
		{"k=a\\nb", "a\nb"},
		{"k=a\\\\b", "a\\b"},
		{"k=a\\xb", "axb"}, // unknown escape: backslash dropped
		{"k=ab\\", "ab"},   // trailing backslash dropped
	}
	for _, tc := range cases {
		tags := DecodeTags(tc.in, ';')
		if v, _ := tags.Get("k"); v != tc.want {
			t.Errorf("DecodeTags(%q): k = %q, want %q", tc.in, v, tc.want)
		}
	}
}

func TestDecodeTagsSeparator(t *testing.T) {
	tags := DecodeTags("a=1,b", ',')
	if v, _ := tags.Get("a"); v != "1" {
		t.Errorf("a = %q, want %q", v, "1")
	}
	if !tags.IsFlag("b") {
		t.Error("b should be a flag")
	}
}

func TestEncodeTags(t *testing.T) {
	tags := NewTags()
	tags.SetFlag("tag1")
	tags.Set("tag2", "tag-data")

	want := "@tag1;tag2=tag-data "
	if got := string(tags.Encode()); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeTagsOrderStable(t *testing.T) {
	tags := NewTags()
	tags.Set("zebra", "1")
	tags.Set("alpha", "2")
	tags.SetFlag("mid")

	want := "@zebra=1;alpha=2;mid "
	if got := string(tags.Encode()); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeTagsFalseOmitted(t *testing.T) {
	tags := NewTags()
	tags.SetBool("gone", false)
	tags.Set("kept", "v")

	if got := string(tags.Encode()); got != "@kept=v " {
		t.Errorf("Encode() = %q, want %q", got, "@kept=v ")
	}
	if tags.Has("gone") {
		t.Error("false boolean should not count as present")
	}
}

func TestEncodeTagsEmpty(t *testing.T) {
	if got := NewTags().Encode(); got != nil {
		t.Errorf("Encode() of empty tags = %q, want nil", got)
	}
}

func TestEncodeTagsEscaping(t *testing.T) {
	tags := NewTags()
	tags.Set("k", "a;b c\\d\r\n")

	want := "@k=a\\:b\\sc\\\\d\\r\\n "
	if got := string(tags.Encode()); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestTagsRoundTrip(t *testing.T) {
	tags := NewTags()
	tags.SetFlag("flag")
	tags.Set("plain", "value")
	tags.Set("tricky", "a;b c\\d\r\ne")
	tags.Set("empty", "")

	decoded := DecodeTagBytes(tags.Encode(), ';')
	if !tags.Equal(decoded) {
		t.Errorf("round trip mismatch: %v vs %v", tags.Keys(), decoded.Keys())
	}
}

func TestTagsDel(t *testing.T) {
	tags := DecodeTags("a=1;b=2;c", ';')
	tags.Del("b")
	if tags.Has("b") {
		t.Error("b survived Del")
	}
	if got := string(tags.Encode()); got != "@a=1;c " {
		t.Errorf("Encode() = %q, want %q", got, "@a=1;c ")
	}
}
