package track

import "strings"

// Casemapping is the server-declared rule for case-insensitive
// comparison of nicks and channel names (ISUPPORT CASEMAPPING).
type Casemapping int

const (
	// CasemapRFC1459 folds []\~ to {}|^ in addition to ASCII; it is
	// the default when the server declares nothing.
	CasemapRFC1459 Casemapping = iota
	CasemapASCII
)

func parseCasemapping(token string) Casemapping {
	if strings.EqualFold(token, "ascii") {
		return CasemapASCII
	}
	return CasemapRFC1459
}

// Fold lowercases s under the casemapping. Registry keys are always
// folded so that Nick and NICK address the same entity.
func (c Casemapping) Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			ch += 'a' - 'A'
		case c == CasemapRFC1459:
			switch ch {
			case '[':
				ch = '{'
			case ']':
				ch = '}'
			case '\\':
				ch = '|'
			case '~':
				ch = '^'
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}
