package track

import (
	"strings"

	"github.com/ircstate/ircstate/internal/proto"
)

// listModeNumerics maps the ban/exception/invite list reply numerics
// to the mode letter they enumerate.
var listModeNumerics = map[string]rune{
	"367": 'b',
	"348": 'e',
	"346": 'I',
}

// handleWelcome processes 001: registration completed. Anything
// tracked before this point belongs to a previous registration, so
// the registries start over with just the client's own user, which
// stays pinned for the lifetime of the connection.
func (t *Tracker) handleWelcome(e Event) {
	if len(e.Args) == 0 {
		return
	}
	nick := e.Args[0]

	t.mu.Lock()
	t.resetLocked()
	self := newUser(t, proto.Hostmask{Nick: nick})
	self.self = true
	t.selfID = t.casemap.Fold(nick)
	t.users[t.selfID] = self
	if data, ok := t.seed[t.selfID]; ok {
		for k, v := range data {
			self.data[k] = v
		}
		delete(t.seed, t.selfID)
	}
	t.mu.Unlock()

	// learn our own ident/host through the WHO reply
	t.send("WHO", nick)
}

// handleISupport captures the 005 tokens the model depends on:
// CASEMAPPING, CHANTYPES, CHANMODES and PREFIX.
func (t *Tracker) handleISupport(e Event) {
	if len(e.Args) < 2 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	kindsChanged := false
	for _, token := range e.Args[1 : len(e.Args)-1] {
		key, value, _ := strings.Cut(token, "=")
		switch key {
		case "CASEMAPPING":
			t.casemap = parseCasemapping(value)
		case "CHANTYPES":
			if value != "" {
				t.chantypes = value
			}
		case "CHANMODES":
			t.chanmodes = value
			kindsChanged = true
		case "PREFIX":
			t.prefixes = ParsePrefixTable(value)
			kindsChanged = true
		}
	}

	if kindsChanged {
		chanmodes := t.chanmodes
		if chanmodes == "" {
			chanmodes = "beI,k,l,imnpst"
		}
		t.kinds = ParseModeKinds(chanmodes, t.prefixes.Modes())
		for _, ch := range t.chans {
			ch.modes.kinds = t.kinds
		}
	}
}

func (t *Tracker) handleJoin(e Event) {
	if e.Source.Nick == "" || len(e.Args) == 0 {
		return
	}

	t.mu.Lock()
	u := t.getOrCreateUser(e.Source)

	// extended-join carries the account and realname as extra args
	if len(e.Args) >= 3 && t.conn.ActiveCaps()["extended-join"] {
		if account := e.Args[len(e.Args)-2]; account == "*" {
			u.account, u.loggedIn = "", false
		} else {
			u.account, u.loggedIn = account, true
		}
		u.realname = e.Args[len(e.Args)-1]
	}

	ch := t.getOrCreateChannel(e.Args[0])
	t.link(u, ch)
	isSelf := u.self
	name := ch.name
	t.mu.Unlock()

	if !isSelf {
		return
	}
	// on our own join, learn the channel's modes and members
	t.send("MODE", name)
	caps := t.conn.ActiveCaps()
	if caps["userhost-in-names"] {
		return // NAMES already carries full hostmasks
	}
	if _, whox := t.conn.ISupport()["WHOX"]; whox {
		t.send("WHO", name, "%cuhsnf")
	} else {
		t.send("WHO", name)
	}
}

func (t *Tracker) handlePart(e Event) {
	if len(e.Args) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.users[t.casemap.Fold(e.Source.Nick)]
	if !ok {
		t.ignoreUnknown(e.Command, e.Source.Nick)
		return
	}
	ch, ok := t.chans[t.casemap.Fold(e.Args[0])]
	if !ok {
		t.ignoreUnknown(e.Command, e.Args[0])
		return
	}
	if u.self {
		t.dropChannel(ch)
	} else {
		t.unlink(u, ch)
	}
}

func (t *Tracker) handleKick(e Event) {
	if len(e.Args) < 2 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	target, ok := t.users[t.casemap.Fold(e.Args[1])]
	if !ok {
		t.ignoreUnknown(e.Command, e.Args[1])
		return
	}
	ch, ok := t.chans[t.casemap.Fold(e.Args[0])]
	if !ok {
		t.ignoreUnknown(e.Command, e.Args[0])
		return
	}
	if target.self {
		t.dropChannel(ch)
	} else {
		t.unlink(target, ch)
	}
}

func (t *Tracker) handleQuit(e Event) {
	t.removeByNick(e.Command, e.Source.Nick)
}

// handleNoSuchNick treats 401 as a quit: the server says the nick is
// gone, so the model should agree.
func (t *Tracker) handleNoSuchNick(e Event) {
	if len(e.Args) < 2 {
		return
	}
	t.removeByNick(e.Command, e.Args[1])
}

func (t *Tracker) removeByNick(command, nick string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.users[t.casemap.Fold(nick)]
	if !ok {
		t.ignoreUnknown(command, nick)
		return
	}
	t.removeEverywhere(u)
}

// handleNick renames a user. The registry key, the nick field, every
// channel's membership set and any status-mode list entries move in
// one critical section; the User object and its metadata survive.
func (t *Tracker) handleNick(e Event) {
	if len(e.Args) == 0 {
		return
	}
	newNick := e.Args[0]

	t.mu.Lock()
	defer t.mu.Unlock()
	oldID := t.casemap.Fold(e.Source.Nick)
	u, ok := t.users[oldID]
	if !ok {
		// likely a user seen by the server before tracking began
		t.ignoreUnknown(e.Command, e.Source.Nick)
		return
	}

	newID := t.casemap.Fold(newNick)
	delete(t.users, oldID)
	u.nick = newNick
	t.users[newID] = u
	if u.self {
		t.selfID = newID
	}

	matchOld := func(entry string) bool { return t.casemap.Fold(entry) == oldID }
	for chID := range u.channels {
		ch, ok := t.chans[chID]
		if !ok {
			continue
		}
		delete(ch.users, oldID)
		ch.users[newID] = true
		ch.modes.Rename(t.prefixes.Modes(), matchOld, newNick)
	}
}

func (t *Tracker) handleAccount(e Event) {
	if len(e.Args) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.users[t.casemap.Fold(e.Source.Nick)]
	if !ok {
		t.ignoreUnknown(e.Command, e.Source.Nick)
		return
	}
	if account := e.Args[0]; account == "*" {
		u.account, u.loggedIn = "", false
	} else {
		u.account, u.loggedIn = account, true
	}
}

func (t *Tracker) handleMode(e Event) {
	if len(e.Args) < 2 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isChannelLocked(e.Args[0]) {
		return // user modes are not tracked
	}
	ch, ok := t.chans[t.casemap.Fold(e.Args[0])]
	if !ok {
		t.ignoreUnknown(e.Command, e.Args[0])
		return
	}
	ch.modes.Apply(e.Args[1], e.Args[2:])
}

// handleModeReply processes 324, the initial mode reply after our
// own join.
func (t *Tracker) handleModeReply(e Event) {
	if len(e.Args) < 3 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.chans[t.casemap.Fold(e.Args[1])]
	if !ok {
		t.ignoreUnknown(e.Command, e.Args[1])
		return
	}
	ch.modes.Apply(e.Args[2], e.Args[3:])
}

// handleListModeReply processes 367/348/346, the ban, ban-exception
// and invite-exception list enumerations.
func (t *Tracker) handleListModeReply(e Event) {
	if len(e.Args) < 3 {
		return
	}
	mode, ok := listModeNumerics[e.Command]
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ch, chOK := t.chans[t.casemap.Fold(e.Args[1])]
	if !chOK {
		t.ignoreUnknown(e.Command, e.Args[1])
		return
	}
	ch.modes.Apply("+"+string(mode), []string{e.Args[2]})
}

func (t *Tracker) handleTopic(e Event) {
	if len(e.Args) < 2 {
		return
	}
	t.setTopic(e.Command, e.Args[0], e.Args[len(e.Args)-1])
}

// handleTopicReply processes 332, the topic sent on join.
func (t *Tracker) handleTopicReply(e Event) {
	if len(e.Args) < 3 {
		return
	}
	t.setTopic(e.Command, e.Args[1], e.Args[2])
}

func (t *Tracker) setTopic(command, channel, topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.chans[t.casemap.Fold(channel)]
	if !ok {
		t.ignoreUnknown(command, channel)
		return
	}
	ch.topic = topic
}

// parseNamesEntry splits a NAMES member, which is a bare nick or,
// under userhost-in-names, a full nick!user@host.
func parseNamesEntry(entry string) proto.Hostmask {
	hm := proto.Hostmask{Nick: entry}
	if i := strings.IndexByte(entry, '!'); i > 0 {
		hm.Nick = entry[:i]
		rest := entry[i+1:]
		if j := strings.IndexByte(rest, '@'); j >= 0 {
			hm.User, hm.Host = rest[:j], rest[j+1:]
		} else {
			hm.User = rest
		}
	}
	return hm
}

// handleNames processes 353: membership plus status sigils for every
// listed member.
func (t *Tracker) handleNames(e Event) {
	if len(e.Args) < 2 {
		return
	}
	names := e.Args[len(e.Args)-1]
	channel := e.Args[len(e.Args)-2]

	t.mu.Lock()
	defer t.mu.Unlock()
	ch := t.getOrCreateChannel(channel)
	for _, member := range strings.Fields(names) {
		modes, bare := t.prefixes.StripSigils(member)
		if bare == "" {
			continue
		}
		u := t.getOrCreateUser(parseNamesEntry(bare))
		t.link(u, ch)
		for _, mode := range modes {
			ch.modes.Apply("+"+string(mode), []string{u.nick})
		}
	}
}

// handleWhoReply processes 352:
// <me> <channel> <user> <host> <server> <nick> <flags> :<hops> <realname>
func (t *Tracker) handleWhoReply(e Event) {
	if len(e.Args) < 7 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u := t.getOrCreateUser(proto.Hostmask{Nick: e.Args[5], User: e.Args[2], Host: e.Args[3]})
	u.server = e.Args[4]
	if len(e.Args) >= 8 {
		if _, realname, found := strings.Cut(e.Args[7], " "); found {
			u.realname = realname
		}
	}
	t.applyWhoFlags(u, e.Args[1], e.Args[6])
}

// handleWhoxReply processes 354 in the %cuhsnf shape requested on
// join: <me> <channel> <user> <host> <server> <nick> <flags>
func (t *Tracker) handleWhoxReply(e Event) {
	if len(e.Args) < 7 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u := t.getOrCreateUser(proto.Hostmask{Nick: e.Args[5], User: e.Args[2], Host: e.Args[3]})
	u.server = e.Args[4]
	t.applyWhoFlags(u, e.Args[1], e.Args[6])
}

// applyWhoFlags digests a WHO flags field ("H@*" and friends):
// here/gone state plus any status sigils on the queried channel.
// Caller holds the write lock.
func (t *Tracker) applyWhoFlags(u *User, channel, flags string) {
	u.away = strings.ContainsRune(flags, 'G')

	if !t.isChannelLocked(channel) {
		return
	}
	ch := t.getOrCreateChannel(channel)
	t.link(u, ch)
	for _, sigil := range flags {
		if mode, ok := t.prefixes.Mode(sigil); ok {
			ch.modes.Apply("+"+string(mode), []string{u.nick})
		}
	}
}
