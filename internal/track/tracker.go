// Package track maintains an in-memory model of channel membership,
// per-user identity and per-channel mode state by observing the IRC
// protocol event stream. It owns no connection of its own: a
// Transport collaborator delivers parsed events and accepts outgoing
// lines.
package track

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ircstate/ircstate/internal/proto"
)

// FeatureName is the well-known name the tracker registers under in
// a feature registry.
const FeatureName = "track"

var (
	// ErrAlreadyConnected is returned when tracking is installed on a
	// live connection. Installing mid-connection would leave the model
	// inconsistent, since historical JOINs were never observed.
	ErrAlreadyConnected = errors.New("tracking must be installed before connecting")

	// ErrAlreadyInstalled is returned by a second Install on the same
	// tracker.
	ErrAlreadyInstalled = errors.New("tracker is already installed")
)

// Event is one inbound protocol event, in the message codec's parse
// shape.
type Event struct {
	Command string
	Source  proto.Hostmask
	Tags    *proto.Tags
	Args    []string
}

// HandlerFunc consumes one protocol event. The transport invokes
// handlers sequentially in arrival order on a single dispatch
// goroutine per connection.
type HandlerFunc func(e Event)

// Transport is the connection collaborator the tracking core is
// driven by. Sends are fire-and-forget; queueing, truncation and
// reconnection belong to the implementation.
type Transport interface {
	Subscribe(command string, handler HandlerFunc)
	OnDisconnect(fn func())
	Connected() bool
	CurrentNick() string
	Send(command string, params ...string) error
	SendTagged(tags *proto.Tags, command string, params ...string) error
	ActiveCaps() map[string]bool
	ISupport() map[string]string
}

// ReadOnlyState is the capability subset safe to expose to restricted
// extension code: registry lookups only, no event handling and no
// lifecycle control.
type ReadOnlyState interface {
	LookupUser(nick string) (*User, bool)
	SelfUser() (*User, bool)
	Users() []*User
	Channel(name string) (*Channel, bool)
	Channels() []*Channel
	IsChannel(name string) bool
}

// Tracker owns the user and channel registries and dispatches
// protocol events to them. A single RWMutex guards both registries
// and every entity's mutable fields, so multi-step updates (a nick
// change, a join touching both sides of the membership relation)
// are atomic to readers.
type Tracker struct {
	mu   sync.RWMutex
	log  *zap.Logger
	conn Transport

	users map[string]*User
	chans map[string]*Channel

	selfID    string
	casemap   Casemapping
	kinds     ModeKinds
	prefixes  PrefixTable
	chanmodes string
	chantypes string

	seed map[string]map[string]any
}

// New creates a tracker. A nil logger disables logging.
func New(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		log:       logger,
		users:     make(map[string]*User),
		chans:     make(map[string]*Channel),
		casemap:   CasemapRFC1459,
		kinds:     DefaultModeKinds(),
		prefixes:  DefaultPrefixTable(),
		chantypes: "#&+",
	}
}

var _ ReadOnlyState = (*Tracker)(nil)

// Install subscribes the tracker to the transport's event stream.
// It must be called while disconnected; tracking a connection whose
// earlier events were missed yields an inconsistent model, so that
// is refused outright.
func (t *Tracker) Install(conn Transport) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return ErrAlreadyInstalled
	}
	if conn.Connected() {
		return ErrAlreadyConnected
	}
	t.conn = conn

	handlers := map[string]HandlerFunc{
		"001":     t.handleWelcome,
		"005":     t.handleISupport,
		"JOIN":    t.handleJoin,
		"PART":    t.handlePart,
		"KICK":    t.handleKick,
		"QUIT":    t.handleQuit,
		"NICK":    t.handleNick,
		"ACCOUNT": t.handleAccount,
		"MODE":    t.handleMode,
		"TOPIC":   t.handleTopic,
		"324":     t.handleModeReply,
		"332":     t.handleTopicReply,
		"352":     t.handleWhoReply,
		"354":     t.handleWhoxReply,
		"353":     t.handleNames,
		"367":     t.handleListModeReply, // +b
		"348":     t.handleListModeReply, // +e
		"346":     t.handleListModeReply, // +I
		"401":     t.handleNoSuchNick,
	}
	for command, handler := range handlers {
		conn.Subscribe(command, handler)
	}
	conn.OnDisconnect(t.Reset)

	t.log.Info("state tracking installed")
	return nil
}

// Reset drops all tracked state. Called on disconnect: membership
// learned before a reconnect is not trustworthy after it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Tracker) resetLocked() {
	t.users = make(map[string]*User)
	t.chans = make(map[string]*Channel)
	t.selfID = ""
	t.casemap = CasemapRFC1459
	t.kinds = DefaultModeKinds()
	t.prefixes = DefaultPrefixTable()
	t.chanmodes = ""
	t.chantypes = "#&+"
	t.log.Info("tracking state reset")
}

// LookupUser finds a user by nickname, case-insensitively per the
// server's casemapping.
func (t *Tracker) LookupUser(nick string) (*User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[t.casemap.Fold(nick)]
	return u, ok
}

// UserByHostmask finds a user by hostmask. The nick keys the lookup;
// ident and host must also match when the registry knows them.
func (t *Tracker) UserByHostmask(hm proto.Hostmask) (*User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[t.casemap.Fold(hm.Nick)]
	if !ok {
		return nil, false
	}
	if u.ident != unknownField && hm.User != "" && u.ident != hm.User {
		return nil, false
	}
	if u.host != unknownField && hm.Host != "" && u.host != hm.Host {
		return nil, false
	}
	return u, true
}

// SelfUser returns the client's own user, once 001 has been seen.
func (t *Tracker) SelfUser() (*User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[t.selfID]
	return u, ok && t.selfID != ""
}

// Users returns all tracked users, sorted by folded nick.
func (t *Tracker) Users() []*User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.users))
	for id := range t.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	users := make([]*User, 0, len(ids))
	for _, id := range ids {
		users = append(users, t.users[id])
	}
	return users
}

// Channel finds a tracked channel by name.
func (t *Tracker) Channel(name string) (*Channel, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ch, ok := t.chans[t.casemap.Fold(name)]
	return ch, ok
}

// Channels returns all tracked channels, sorted by folded name.
func (t *Tracker) Channels() []*Channel {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.chans))
	for id := range t.chans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	chans := make([]*Channel, 0, len(ids))
	for _, id := range ids {
		chans = append(chans, t.chans[id])
	}
	return chans
}

// IsChannel reports whether name starts with one of the server's
// channel type sigils (ISUPPORT CHANTYPES).
func (t *Tracker) IsChannel(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isChannelLocked(name)
}

func (t *Tracker) isChannelLocked(name string) bool {
	return name != "" && strings.ContainsRune(t.chantypes, rune(name[0]))
}

// SeedMetadata preloads application metadata, keyed by folded nick.
// Entries are attached to users as they become tracked.
func (t *Tracker) SeedMetadata(meta map[string]map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seed = make(map[string]map[string]any, len(meta))
	for nick, data := range meta {
		t.seed[t.casemap.Fold(nick)] = data
	}
	for id, u := range t.users {
		if data, ok := t.seed[id]; ok {
			for k, v := range data {
				u.data[k] = v
			}
			delete(t.seed, id)
		}
	}
}

// MetadataSnapshot copies every tracked user's metadata, keyed by
// folded nick, for persistence across restarts.
func (t *Tracker) MetadataSnapshot() map[string]map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := make(map[string]map[string]any)
	for id, u := range t.users {
		if len(u.data) == 0 {
			continue
		}
		data := make(map[string]any, len(u.data))
		for k, v := range u.data {
			data[k] = v
		}
		snap[id] = data
	}
	return snap
}

// send hands an outgoing line to the transport. Failures are logged,
// not returned: outbound convenience calls are fire-and-forget.
func (t *Tracker) send(command string, params ...string) {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.Send(command, params...); err != nil {
		t.log.Warn("send failed", zap.String("command", command), zap.Error(err))
	}
}

// getOrCreateUser returns the user for the hostmask, creating it on
// first reference and refreshing ident/host when the event carries
// them. Caller holds the write lock.
func (t *Tracker) getOrCreateUser(hm proto.Hostmask) *User {
	id := t.casemap.Fold(hm.Nick)
	u, ok := t.users[id]
	if !ok {
		u = newUser(t, hm)
		t.users[id] = u
		if data, ok := t.seed[id]; ok {
			for k, v := range data {
				u.data[k] = v
			}
			delete(t.seed, id)
		}
		t.log.Debug("tracking new user", zap.String("nick", hm.Nick))
		return u
	}
	if hm.User != "" && !hm.IsServer() {
		u.ident = hm.User
	}
	if hm.Host != "" && !hm.IsServer() {
		u.host = hm.Host
	}
	return u
}

// getOrCreateChannel returns the channel, creating it on first
// reference. Caller holds the write lock.
func (t *Tracker) getOrCreateChannel(name string) *Channel {
	id := t.casemap.Fold(name)
	ch, ok := t.chans[id]
	if !ok {
		ch = newChannel(t, name)
		t.chans[id] = ch
		t.log.Debug("tracking new channel", zap.String("channel", name))
	}
	return ch
}

// link adds the user to both sides of the membership relation.
// Idempotent: a replayed JOIN leaves cardinality unchanged. Caller
// holds the write lock.
func (t *Tracker) link(u *User, ch *Channel) {
	uid := t.casemap.Fold(u.nick)
	ch.users[uid] = true
	u.channels[ch.id] = true
}

// unlink removes the user from both sides of the membership relation
// and evicts a user left in zero channels, unless it is the client's
// own user. Caller holds the write lock.
func (t *Tracker) unlink(u *User, ch *Channel) {
	uid := t.casemap.Fold(u.nick)
	delete(ch.users, uid)
	delete(u.channels, ch.id)
	if len(u.channels) == 0 && !u.self {
		delete(t.users, uid)
		t.log.Debug("evicting channel-less user", zap.String("nick", u.nick))
	}
}

// dropChannel removes a channel (the client parted or was kicked),
// unlinking every member. Caller holds the write lock.
func (t *Tracker) dropChannel(ch *Channel) {
	for uid := range ch.users {
		if u, ok := t.users[uid]; ok {
			t.unlink(u, ch)
		}
	}
	delete(t.chans, ch.id)
	t.log.Debug("dropped channel", zap.String("channel", ch.name))
}

// removeEverywhere handles a quit: the user leaves every channel and
// the registry. Caller holds the write lock.
func (t *Tracker) removeEverywhere(u *User) {
	uid := t.casemap.Fold(u.nick)
	for id := range u.channels {
		if ch, ok := t.chans[id]; ok {
			delete(ch.users, uid)
		}
	}
	u.channels = make(map[string]bool)
	delete(t.users, uid)
}

func (t *Tracker) ignoreUnknown(command, who string) {
	t.log.Debug("event for untracked entity ignored",
		zap.String("command", command), zap.String("who", who))
}

func (t *Tracker) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("<Tracker %d users, %d channels>", len(t.users), len(t.chans))
}
