// Package proto implements the IRC wire-format primitives the
// tracking core is built on: the Hostmask identity triple, the IRCv3
// tag codec, and parsing/unparsing of protocol lines.
//
// The codec never truncates: enforcing the server's line-length limit
// is the transport's job, as is appending the CRLF terminator.
package proto

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLineTerminator is returned when a command or argument contains
// CR or LF and therefore cannot be serialized as one protocol line.
var ErrLineTerminator = errors.New("argument contains a line terminator")

// Message is one parsed protocol line: command, sender, tags and the
// ordered argument list. A trailing parameter carries no special
// marker here; it is just the final argument.
type Message struct {
	Command string
	Source  Hostmask
	Tags    *Tags
	Args    []string
}

// ParseMessage parses a raw protocol line into a Message. It never
// fails: malformed input degrades to a best-effort partial parse so a
// single garbled server line cannot take the connection down. An
// empty or all-space line yields a Message with an empty command.
func ParseMessage(line string) Message {
	msg := Message{Tags: NewTags()}
	rest := strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(rest, "@") {
		tagPart, remainder, found := strings.Cut(rest, " ")
		msg.Tags = DecodeTags(tagPart[1:], ';')
		if !found {
			return msg
		}
		rest = remainder
	}

	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, ":") {
		prefixPart, remainder, found := strings.Cut(rest[1:], " ")
		msg.Source = ParsePrefix(prefixPart)
		if !found {
			return msg
		}
		rest = remainder
	}

	var tokens []string
	for rest != "" {
		if rest[0] == ':' {
			// trailing parameter: the rest of the line, verbatim
			tokens = append(tokens, rest[1:])
			break
		}
		token, remainder, _ := strings.Cut(rest, " ")
		if token != "" {
			tokens = append(tokens, token)
		}
		rest = remainder
	}
	if len(tokens) == 0 {
		return msg
	}

	msg.Command = strings.ToUpper(tokens[0])
	msg.Args = tokens[1:]
	return msg
}

// ParseMessageBytes parses a raw line delivered as bytes, decoding it
// as UTF-8 with invalid sequences replaced.
func ParseMessageBytes(line []byte) Message {
	return ParseMessage(strings.ToValidUTF8(string(line), "�"))
}

// pruneArg replaces characters that would break tokenization of a
// non-trailing argument with Unicode lookalikes.
func pruneArg(arg string) string {
	if strings.HasPrefix(arg, ":") {
		arg = "܃" + arg[1:]
	}
	return strings.ReplaceAll(arg, " ", " ")
}

func checkLineSafe(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: %q", ErrLineTerminator, s)
	}
	return nil
}

// UnparseV2 serializes a Message as an IRCv2 line (no tags block),
// returned as UTF-8 bytes without a CRLF terminator. The final
// argument is written as a trailing parameter when it contains a
// space, is empty, begins with ':', or when forceTrailing is set.
// Arguments containing CR or LF fail with ErrLineTerminator.
func UnparseV2(msg Message, forceTrailing bool) ([]byte, error) {
	if err := checkLineSafe(msg.Command); err != nil {
		return nil, err
	}
	for _, arg := range msg.Args {
		if err := checkLineSafe(arg); err != nil {
			return nil, err
		}
	}

	parts := make([]string, 0, len(msg.Args)+2)
	switch {
	case msg.Source.IsZero():
	case msg.Source.IsServer():
		// inverse of the ParsePrefix server-name convention
		parts = append(parts, ":"+msg.Source.Nick)
	default:
		parts = append(parts, ":"+msg.Source.String())
	}

	cmd := msg.Command
	if strings.HasPrefix(cmd, "@") {
		cmd = "＠" + cmd[1:]
	}
	parts = append(parts, pruneArg(cmd))

	for i, arg := range msg.Args {
		if i < len(msg.Args)-1 {
			parts = append(parts, pruneArg(arg))
			continue
		}
		if forceTrailing || arg == "" || strings.HasPrefix(arg, ":") || strings.ContainsRune(arg, ' ') {
			arg = ":" + arg
		}
		parts = append(parts, arg)
	}

	return []byte(strings.Join(parts, " ")), nil
}

// UnparseV3 is UnparseV2 with the IRCv3 tags block prefixed when the
// message carries any encodable tags.
func UnparseV3(msg Message, forceTrailing bool) ([]byte, error) {
	line, err := UnparseV2(msg, forceTrailing)
	if err != nil {
		return nil, err
	}
	if block := msg.Tags.Encode(); block != nil {
		return append(block, line...), nil
	}
	return line, nil
}
