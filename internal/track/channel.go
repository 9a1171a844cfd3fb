package track

// Channel is one joined or observed channel. Membership is kept as a
// set of user IDs resolved through the owning Tracker, so User and
// Channel never own each other and teardown is plain map clearing.
type Channel struct {
	t *Tracker

	name  string
	id    string // folded name, the registry key
	topic string
	modes *ModeList
	users map[string]bool // user IDs
}

func newChannel(t *Tracker, name string) *Channel {
	return &Channel{
		t:     t,
		name:  name,
		id:    t.casemap.Fold(name),
		modes: NewModeList(t.kinds),
		users: make(map[string]bool),
	}
}

// Name returns the channel name as first observed.
func (c *Channel) Name() string { return c.name }

// ID returns the case-folded registry key.
func (c *Channel) ID() string { return c.id }

// Topic returns the channel topic, empty when unknown.
func (c *Channel) Topic() string {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return c.topic
}

// Users returns the current members.
func (c *Channel) Users() []*User {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	users := make([]*User, 0, len(c.users))
	for id := range c.users {
		if u, ok := c.t.users[id]; ok {
			users = append(users, u)
		}
	}
	return users
}

// NumUsers returns the membership count.
func (c *Channel) NumUsers() int {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return len(c.users)
}

// Has reports whether the user is a member.
func (c *Channel) Has(u *User) bool {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return u != nil && c.users[c.t.casemap.Fold(u.nick)]
}

// ModeBool reports whether a boolean channel mode is set.
func (c *Channel) ModeBool(mode rune) bool {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return c.modes.GetBool(mode)
}

// ModeStr returns the parameter of a single-value channel mode.
func (c *Channel) ModeStr(mode rune) (string, bool) {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return c.modes.GetStr(mode)
}

// ModeSet returns the entries of a multi-value channel mode.
func (c *Channel) ModeSet(mode rune) []string {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return c.modes.GetSet(mode)
}

// HasModeStr reports whether a single-value mode is set.
func (c *Channel) HasModeStr(mode rune) bool {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return c.modes.HasStr(mode)
}

// HasModeSet reports whether a multi-value mode has entries.
func (c *Channel) HasModeSet(mode rune) bool {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return c.modes.HasSet(mode)
}

// Msg sends a PRIVMSG to the channel.
func (c *Channel) Msg(text string) {
	c.t.send("PRIVMSG", c.name, text)
}

// Notice sends a NOTICE to the channel.
func (c *Channel) Notice(text string) {
	c.t.send("NOTICE", c.name, text)
}

// Me sends a CTCP ACTION to the channel.
func (c *Channel) Me(text string) {
	c.t.send("PRIVMSG", c.name, "\x01ACTION "+text+"\x01")
}

func (c *Channel) String() string {
	return "<Channel " + c.name + ">"
}
