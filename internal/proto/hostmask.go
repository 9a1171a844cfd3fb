package proto

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHostmask is returned by NewHostmask for fields that could
// not appear in a nick!user@host prefix on the wire.
var ErrInvalidHostmask = errors.New("invalid hostmask")

// Hostmask is the nick!user@host identity triple for an IRC
// participant or server. It is a comparable value type, so it can be
// used directly as a map key. The zero value means "no prefix".
type Hostmask struct {
	Nick string
	User string
	Host string
}

// NewHostmask validates the three fields and builds a Hostmask.
// Fields containing spaces, line terminators or NUL are rejected, as
// is an empty nick or a nick containing '!' or '@'.
func NewHostmask(nick, user, host string) (Hostmask, error) {
	if nick == "" {
		return Hostmask{}, fmt.Errorf("%w: empty nick", ErrInvalidHostmask)
	}
	if strings.ContainsAny(nick, "!@") {
		return Hostmask{}, fmt.Errorf("%w: %q contains a separator", ErrInvalidHostmask, nick)
	}
	for _, field := range [...]string{nick, user, host} {
		if strings.ContainsAny(field, " \r\n\x00") {
			return Hostmask{}, fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidHostmask, field)
		}
	}
	return Hostmask{Nick: nick, User: user, Host: host}, nil
}

// ParsePrefix parses a message prefix of the form nick!user@host.
// Single-token prefixes (server names) yield a triple with all three
// fields set to the token; partial forms duplicate the missing field
// from the nearest available one.
func ParsePrefix(s string) Hostmask {
	bang := strings.IndexByte(s, '!')
	at := strings.IndexByte(s, '@')
	switch {
	case bang > 0 && at > bang:
		return Hostmask{Nick: s[:bang], User: s[bang+1 : at], Host: s[at+1:]}
	case bang > 0:
		return Hostmask{Nick: s[:bang], User: s[bang+1:], Host: s[bang+1:]}
	case at > 0:
		return Hostmask{Nick: s[:at], User: s[:at], Host: s[at+1:]}
	default:
		return Hostmask{Nick: s, User: s, Host: s}
	}
}

// IsZero reports whether the hostmask carries no prefix at all.
func (h Hostmask) IsZero() bool {
	return h == Hostmask{}
}

// IsServer reports whether the hostmask follows the server-name
// convention of all three fields holding the same token.
func (h Hostmask) IsServer() bool {
	return h.Nick != "" && h.Nick == h.User && h.User == h.Host
}

var nickSanitizer = strings.NewReplacer("!", "_", "@", "_")

// String renders the canonical nick!user@host form. Separators that
// leaked into the nick or user fields are replaced with underscores so
// the result always splits back into three fields.
func (h Hostmask) String() string {
	return nickSanitizer.Replace(h.Nick) + "!" +
		strings.ReplaceAll(h.User, "@", "_") + "@" + h.Host
}
