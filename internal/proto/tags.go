package proto

import (
	"bytes"
	"strings"
)

// Tags holds IRCv3 message tags as an insertion-ordered mapping from
// key to either a string value or a boolean flag. Keys are
// case-sensitive and unique; insertion order is irrelevant for
// semantics but is preserved so that Encode output is deterministic.
type Tags struct {
	keys    []string
	entries map[string]tagValue
}

type tagValue struct {
	hasValue bool
	flag     bool // valueless tag; encoded as a bare key when true, omitted when false
	value    string
}

// NewTags returns an empty tag mapping.
func NewTags() *Tags {
	return &Tags{entries: make(map[string]tagValue)}
}

func (t *Tags) put(key string, v tagValue) {
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = v
}

// Set stores a string-valued tag, overwriting any previous entry.
func (t *Tags) Set(key, value string) {
	t.put(key, tagValue{hasValue: true, value: value})
}

// SetFlag stores a valueless tag ("tag present with no value").
func (t *Tags) SetFlag(key string) {
	t.SetBool(key, true)
}

// SetBool stores a boolean tag. A false entry is remembered but never
// encoded, so it vanishes on a round trip.
func (t *Tags) SetBool(key string, v bool) {
	t.put(key, tagValue{flag: v})
}

// Del removes a tag entirely.
func (t *Tags) Del(key string) {
	if _, ok := t.entries[key]; !ok {
		return
	}
	delete(t.entries, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Get returns the string value of a tag. The second result is false
// for missing keys and for boolean flags.
func (t *Tags) Get(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.entries[key]
	if !ok || !v.hasValue {
		return "", false
	}
	return v.value, true
}

// IsFlag reports whether key is present as a true boolean flag.
func (t *Tags) IsFlag(key string) bool {
	if t == nil {
		return false
	}
	v, ok := t.entries[key]
	return ok && !v.hasValue && v.flag
}

// Has reports whether key would appear in the encoded form.
func (t *Tags) Has(key string) bool {
	if t == nil {
		return false
	}
	v, ok := t.entries[key]
	return ok && (v.hasValue || v.flag)
}

// Len counts the entries that would appear in the encoded form.
func (t *Tags) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, v := range t.entries {
		if v.hasValue || v.flag {
			n++
		}
	}
	return n
}

// Keys returns the encodable keys in insertion order.
func (t *Tags) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		if v := t.entries[k]; v.hasValue || v.flag {
			keys = append(keys, k)
		}
	}
	return keys
}

// Equal reports whether both mappings carry the same encodable
// entries, ignoring insertion order.
func (t *Tags) Equal(other *Tags) bool {
	if t.Len() != other.Len() {
		return false
	}
	for _, k := range t.Keys() {
		if t.IsFlag(k) != other.IsFlag(k) {
			return false
		}
		v1, ok1 := t.Get(k)
		v2, ok2 := other.Get(k)
		if ok1 != ok2 || v1 != v2 {
			return false
		}
	}
	return true
}

// tagEscape is the fixed IRCv3 escape table, applied on encode. The
// backslash pair must come first so escapes are never re-escaped.
var tagEscape = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\:",
	" ", "\\s",
	"\r", "\\r",
	"\n", "\\n",
)

func unescapeTag(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			break // trailing backslash is dropped
		}
		switch s[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			// unknown escape: the backslash is dropped
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// DecodeTags converts a tag list ("tag1;tag2=tag-data" for the usual
// ';' separator) into a Tags mapping. Tokens without '=' become
// boolean flags; values have the IRCv3 escape sequences resolved.
// Empty or whitespace-only input yields an empty mapping.
func DecodeTags(list string, sep byte) *Tags {
	t := NewTags()
	if strings.TrimSpace(list) == "" {
		return t
	}
	for _, token := range strings.Split(list, string(sep)) {
		if token == "" {
			continue
		}
		if eq := strings.IndexByte(token, '='); eq >= 0 {
			t.Set(token[:eq], unescapeTag(token[eq+1:]))
		} else {
			t.SetFlag(token)
		}
	}
	return t
}

// DecodeTagBytes is DecodeTags for raw bytes, stripping the optional
// leading '@' and trailing space of a wire-format tags block and
// decoding the rest as permissive UTF-8.
func DecodeTagBytes(raw []byte, sep byte) *Tags {
	if bytes.HasPrefix(raw, []byte("@")) && bytes.HasSuffix(raw, []byte(" ")) {
		raw = raw[1 : len(raw)-1]
	}
	return DecodeTags(strings.ToValidUTF8(string(raw), "�"), sep)
}

// Encode renders the wire-format tags block: '@', the ';'-joined
// entries with escaping applied, and a single trailing space. True
// flags become bare keys, false booleans are omitted. An empty
// mapping encodes to nil.
func (t *Tags) Encode() []byte {
	if t.Len() == 0 {
		return nil
	}
	var b bytes.Buffer
	b.WriteByte('@')
	first := true
	for _, k := range t.keys {
		v := t.entries[k]
		if !v.hasValue && !v.flag {
			continue
		}
		if !first {
			b.WriteByte(';')
		}
		first = false
		b.WriteString(k)
		if v.hasValue {
			b.WriteByte('=')
			b.WriteString(tagEscape.Replace(v.value))
		}
	}
	b.WriteByte(' ')
	return b.Bytes()
}
