package track

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ircstate/ircstate/internal/proto"
)

// unknownField marks identity fields not yet learned from the
// protocol (a NAMES entry gives only the nick, for example).
const unknownField = "???"

// User is one known IRC participant. Identity fields are maintained
// by the owning Tracker as protocol events arrive; metadata belongs
// to the application and survives nick changes. All fields are
// guarded by the Tracker's lock, so accessors are safe to call from
// any goroutine.
type User struct {
	t *Tracker

	nick     string
	ident    string
	host     string
	realname string
	account  string
	loggedIn bool
	server   string
	away     bool
	self     bool

	channels map[string]bool // channel IDs, resolved through the Tracker
	data     map[string]any
}

func newUser(t *Tracker, hm proto.Hostmask) *User {
	u := &User{
		t:        t,
		nick:     hm.Nick,
		ident:    hm.User,
		host:     hm.Host,
		realname: unknownField,
		channels: make(map[string]bool),
		data:     make(map[string]any),
	}
	if u.ident == "" {
		u.ident = unknownField
	}
	if u.host == "" {
		u.host = unknownField
	}
	return u
}

// Nick returns the user's current nickname.
func (u *User) Nick() string {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.nick
}

// Ident returns the username portion of the hostmask.
func (u *User) Ident() string {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.ident
}

// Host returns the host portion of the hostmask.
func (u *User) Host() string {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.host
}

// Realname returns the user's real name, when known.
func (u *User) Realname() string {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.realname
}

// Account returns the services account name; ok is false when the
// user is not logged in.
func (u *User) Account() (name string, ok bool) {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.account, u.loggedIn
}

// Server returns the server the user is connected to, learned from
// WHO replies.
func (u *User) Server() string {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.server
}

// Away reports the away flag from the most recent WHO reply.
func (u *User) Away() bool {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.away
}

// IsSelf reports whether this is the client's own user. The self
// user is pinned: it is never evicted on leaving its last channel.
func (u *User) IsSelf() bool {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return u.self
}

// Hostmask returns the identity triple.
func (u *User) Hostmask() proto.Hostmask {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	return proto.Hostmask{Nick: u.nick, User: u.ident, Host: u.host}
}

// RawHostmask returns the nick!ident@host string.
func (u *User) RawHostmask() string {
	return u.Hostmask().String()
}

// Channels returns the channels the user is currently in.
func (u *User) Channels() []*Channel {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	chans := make([]*Channel, 0, len(u.channels))
	for id := range u.channels {
		if ch, ok := u.t.chans[id]; ok {
			chans = append(chans, ch)
		}
	}
	return chans
}

// SetData stores application metadata under key. Values must be
// JSON-serializable so they can be persisted; anything else is
// rejected.
func (u *User) SetData(key string, value any) error {
	if _, err := json.Marshal(value); err != nil {
		return fmt.Errorf("metadata value for %q is not JSON-serializable: %w", key, err)
	}
	u.t.mu.Lock()
	defer u.t.mu.Unlock()
	u.data[key] = value
	return nil
}

// Data returns the metadata stored under key.
func (u *User) Data(key string) (any, bool) {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	v, ok := u.data[key]
	return v, ok
}

// DelData removes the metadata stored under key.
func (u *User) DelData(key string) {
	u.t.mu.Lock()
	defer u.t.mu.Unlock()
	delete(u.data, key)
}

// DataKeys returns the metadata keys currently set.
func (u *User) DataKeys() []string {
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	keys := make([]string, 0, len(u.data))
	for k := range u.data {
		keys = append(keys, k)
	}
	return keys
}

// AvatarURL derives an avatar for idents that encode one (IRCCloud
// uid/sid idents).
func (u *User) AvatarURL() (string, bool) {
	ident := u.Ident()
	if strings.HasPrefix(ident, "uid") || strings.HasPrefix(ident, "sid") {
		id := ident[3:]
		if id != "" && isDigits(id) {
			return "https://static.irccloud-cdn.com/avatar-redirect/" + id, true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Msg sends a PRIVMSG to the user. Fire and forget: delivery and
// backpressure belong to the transport.
func (u *User) Msg(text string) {
	u.t.send("PRIVMSG", u.Nick(), text)
}

// Notice sends a NOTICE to the user.
func (u *User) Notice(text string) {
	u.t.send("NOTICE", u.Nick(), text)
}

// Me sends a CTCP ACTION ("/me") to the user.
func (u *User) Me(text string) {
	u.t.send("PRIVMSG", u.Nick(), "\x01ACTION "+text+"\x01")
}

// Kick requests the user be kicked from a channel.
func (u *User) Kick(channel, reason string) {
	u.t.send("KICK", channel, u.Nick(), reason)
}

func (u *User) String() string {
	return "<User " + u.RawHostmask() + ">"
}
