// Package irc adapts an ergochat ircevent connection to the event
// stream and send surface the tracking core expects, and hosts the
// feature registry that extension code hangs off the client.
package irc

import (
	"crypto/tls"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	"go.uber.org/zap"

	"github.com/ircstate/ircstate/internal/config"
	"github.com/ircstate/ircstate/internal/proto"
	"github.com/ircstate/ircstate/internal/track"
)

// Version information (set at build time or here)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// capRequests are the IRCv3 capabilities the client negotiates. The
// tracker degrades gracefully when the server grants none of them.
var capRequests = []string{
	"extended-join",
	"account-notify",
	"away-notify",
	"multi-prefix",
	"userhost-in-names",
	"message-tags",
}

// Client owns the server connection. It implements track.Transport:
// inbound lines become track.Events, outbound sends go through the
// ircevent queue.
type Client struct {
	conn     *ircevent.Connection
	cfg      *config.Config
	log      *zap.Logger
	features *Features

	mu           sync.RWMutex
	connected    bool
	caps         map[string]bool
	onDisconnect []func()
}

// NewClient creates a client for the configured server. No connection
// is made until Connect.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:      cfg,
		log:      logger,
		features: NewFeatures(),
		caps:     make(map[string]bool),
	}

	c.conn = &ircevent.Connection{
		Server:       fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		Nick:         cfg.Nick,
		User:         cfg.Username,
		RealName:     cfg.Realname,
		Password:     cfg.ServerPass,
		QuitMessage:  cfg.QuitMessage,
		Debug:        cfg.Debug,
		UseTLS:       cfg.TLS,
		TLSConfig:    &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerify},
		SASLLogin:    cfg.SASLLogin,
		SASLPassword: cfg.SASLPassword,
		RequestCaps:  capRequests,
	}

	c.registerHandlers()
	return c
}

func (c *Client) registerHandlers() {
	c.conn.AddConnectCallback(func(e ircmsg.Message) {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		c.log.Info("connected", zap.String("server", c.cfg.Server))
	})

	c.conn.AddDisconnectCallback(func(e ircmsg.Message) {
		c.mu.Lock()
		c.connected = false
		c.caps = make(map[string]bool)
		fns := c.onDisconnect
		c.mu.Unlock()
		c.log.Info("disconnected", zap.String("server", c.cfg.Server))
		for _, fn := range fns {
			fn()
		}
	})

	// Capability grants. ircevent negotiates RequestCaps for us, but
	// does not expose the active set, so the ACK/DEL traffic is
	// mirrored here.
	c.conn.AddCallback("CAP", c.onCap)
}

// onCap mirrors capability negotiation:
//
//	CAP <me> ACK :cap1 -cap2
//	CAP <me> DEL :cap1
func (c *Client) onCap(e ircmsg.Message) {
	if len(e.Params) < 3 {
		return
	}
	subcommand := e.Params[1]
	names := strings.Fields(e.Params[len(e.Params)-1])

	c.mu.Lock()
	defer c.mu.Unlock()
	switch subcommand {
	case "ACK":
		for _, name := range names {
			if strings.HasPrefix(name, "-") {
				delete(c.caps, name[1:])
			} else {
				c.caps[name] = true
			}
		}
	case "DEL":
		for _, name := range names {
			delete(c.caps, name)
		}
	}
}

// Features returns the client's feature registry.
func (c *Client) Features() *Features { return c.features }

// Connect initiates the connection
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Loop runs the event loop (blocking)
func (c *Client) Loop() {
	c.conn.Loop()
}

// Quit disconnects from the server
func (c *Client) Quit() {
	c.conn.Quit()
}

// Join joins a channel
func (c *Client) Join(channel string) error {
	return c.conn.Join(channel)
}

// Privmsg sends a PRIVMSG
func (c *Client) Privmsg(target, text string) error {
	return c.conn.Privmsg(target, text)
}

// Notice sends a NOTICE
func (c *Client) Notice(target, text string) error {
	return c.conn.Notice(target, text)
}

// AddCallback registers a raw ircevent handler, for code working
// below the track.Event level.
func (c *Client) AddCallback(command string, handler func(ircmsg.Message)) {
	c.conn.AddCallback(command, handler)
}

// Subscribe registers a handler for a command, translated to the
// tracking event shape. Part of track.Transport.
func (c *Client) Subscribe(command string, handler track.HandlerFunc) {
	c.conn.AddCallback(command, func(e ircmsg.Message) {
		handler(track.Event{
			Command: e.Command,
			Source:  proto.ParsePrefix(e.Source),
			Tags:    convertTags(e.AllTags()),
			Args:    e.Params,
		})
	})
}

// convertTags rebuilds the codec's ordered tag shape from ircevent's
// map. Keys are sorted for a deterministic order; an empty value is a
// flag, which matches how the wire format round-trips.
func convertTags(raw map[string]string) *proto.Tags {
	tags := proto.NewTags()
	if len(raw) == 0 {
		return tags
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := raw[k]; v == "" {
			tags.SetFlag(k)
		} else {
			tags.Set(k, v)
		}
	}
	return tags
}

// OnDisconnect registers a function to run when the connection drops.
// Part of track.Transport.
func (c *Client) OnDisconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = append(c.onDisconnect, fn)
}

// Connected reports whether a registration-complete connection is up.
// Part of track.Transport.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// CurrentNick returns the nick the server currently knows us by.
// Part of track.Transport.
func (c *Client) CurrentNick() string {
	return c.conn.CurrentNick()
}

// Send sends a command with parameters. Part of track.Transport.
func (c *Client) Send(command string, params ...string) error {
	return c.conn.Send(command, params...)
}

// SendTagged sends a command with message tags attached.
// Part of track.Transport.
func (c *Client) SendTagged(tags *proto.Tags, command string, params ...string) error {
	if tags == nil || tags.Len() == 0 {
		return c.conn.Send(command, params...)
	}
	m := make(map[string]string, tags.Len())
	for _, k := range tags.Keys() {
		if tags.IsFlag(k) {
			m[k] = ""
			continue
		}
		v, _ := tags.Get(k)
		m[k] = v
	}
	return c.conn.SendIRCMessage(ircmsg.MakeMessage(m, "", command, params...))
}

// ActiveCaps returns the capabilities the server has acknowledged.
// Part of track.Transport.
func (c *Client) ActiveCaps() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	caps := make(map[string]bool, len(c.caps))
	for k := range c.caps {
		caps[k] = true
	}
	return caps
}

// ISupport returns the server's 005 tokens. Part of track.Transport.
func (c *Client) ISupport() map[string]string {
	return c.conn.ISupport()
}

var _ track.Transport = (*Client)(nil)
