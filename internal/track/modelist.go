package track

import (
	"sort"
	"strings"
)

// ModeKinds partitions channel mode letters by parameter behaviour,
// derived from ISUPPORT CHANMODES (type A list modes, type B/C
// parameter modes, type D flags). Status modes from PREFIX are folded
// into the list partition, matching how servers report them in MODE
// and NAMES.
type ModeKinds struct {
	set       map[rune]bool // multi-value: type A plus status modes
	strAlways map[rune]bool // single-value, parameter on set and unset (type B)
	strOnSet  map[rune]bool // single-value, parameter only when set (type C)
}

// ParseModeKinds builds ModeKinds from a CHANMODES token
// ("A,B,C,D") and the mode letters of the PREFIX token.
func ParseModeKinds(chanmodes, prefixModes string) ModeKinds {
	groups := strings.SplitN(chanmodes, ",", 4)
	for len(groups) < 4 {
		groups = append(groups, "")
	}
	k := ModeKinds{
		set:       make(map[rune]bool),
		strAlways: make(map[rune]bool),
		strOnSet:  make(map[rune]bool),
	}
	for _, r := range groups[0] + prefixModes {
		k.set[r] = true
	}
	for _, r := range groups[1] {
		k.strAlways[r] = true
	}
	for _, r := range groups[2] {
		k.strOnSet[r] = true
	}
	// groups[3] and anything undeclared are boolean
	return k
}

// DefaultModeKinds covers the common RFC mode set, used until the
// server's ISUPPORT arrives.
func DefaultModeKinds() ModeKinds {
	return ParseModeKinds("beI,k,l,imnpst", "ov")
}

// IsSet reports whether the letter belongs to the multi-value
// partition.
func (k ModeKinds) IsSet(mode rune) bool { return k.set[mode] }

// IsStr reports whether the letter belongs to the single-value
// partition.
func (k ModeKinds) IsStr(mode rune) bool { return k.strAlways[mode] || k.strOnSet[mode] }

// TakesParam reports whether the letter consumes a parameter for the
// given direction.
func (k ModeKinds) TakesParam(mode rune, adding bool) bool {
	if k.set[mode] || k.strAlways[mode] {
		return true
	}
	return k.strOnSet[mode] && adding
}

// PrefixTable maps NAMES sigils ('@', '+', ...) to their status mode
// letters, from ISUPPORT PREFIX.
type PrefixTable struct {
	modes  string
	sigils string
}

// ParsePrefixTable parses a PREFIX token of the form
// "(modes)sigils". Malformed tokens fall back to the conventional
// full table.
func ParsePrefixTable(token string) PrefixTable {
	body := strings.TrimPrefix(token, "(")
	modes, sigils, found := strings.Cut(body, ")")
	if !found || len(modes) != len(sigils) || modes == "" {
		return DefaultPrefixTable()
	}
	return PrefixTable{modes: modes, sigils: sigils}
}

// DefaultPrefixTable covers every status sigil in common use.
func DefaultPrefixTable() PrefixTable {
	return PrefixTable{modes: "Yqaohv", sigils: "!~&@%+"}
}

// Modes returns the status mode letters, highest rank first.
func (p PrefixTable) Modes() string { return p.modes }

// Mode returns the status mode letter for a sigil.
func (p PrefixTable) Mode(sigil rune) (rune, bool) {
	if i := strings.IndexRune(p.sigils, sigil); i >= 0 {
		return rune(p.modes[i]), true
	}
	return 0, false
}

// StripSigils splits a NAMES entry into its status mode letters and
// the bare nick.
func (p PrefixTable) StripSigils(entry string) (modes []rune, nick string) {
	for entry != "" {
		mode, ok := p.Mode(rune(entry[0]))
		if !ok {
			break
		}
		modes = append(modes, mode)
		entry = entry[1:]
	}
	return modes, entry
}

// ModeList stores one channel's mode state, partitioned into boolean
// modes, single-value modes and multi-value list modes. A given
// letter lives in exactly one partition, as declared by ModeKinds.
//
// ModeList does no locking of its own; the owning registry serializes
// access.
type ModeList struct {
	kinds ModeKinds
	bools map[rune]bool
	strs  map[rune]string
	sets  map[rune]map[string]bool
}

// NewModeList returns an empty mode list using the given kinds.
func NewModeList(kinds ModeKinds) *ModeList {
	return &ModeList{
		kinds: kinds,
		bools: make(map[rune]bool),
		strs:  make(map[rune]string),
		sets:  make(map[rune]map[string]bool),
	}
}

// GetBool reports whether a boolean mode is set.
func (m *ModeList) GetBool(mode rune) bool { return m.bools[mode] }

// GetStr returns the parameter of a single-value mode.
func (m *ModeList) GetStr(mode rune) (string, bool) {
	v, ok := m.strs[mode]
	return v, ok
}

// HasStr reports whether a single-value mode is set.
func (m *ModeList) HasStr(mode rune) bool {
	_, ok := m.strs[mode]
	return ok
}

// GetSet returns the entries of a multi-value mode as a sorted copy;
// nil when the mode is unset.
func (m *ModeList) GetSet(mode rune) []string {
	set := m.sets[mode]
	if len(set) == 0 {
		return nil
	}
	entries := make([]string, 0, len(set))
	for e := range set {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	return entries
}

// HasSet reports whether a multi-value mode has any entries.
func (m *ModeList) HasSet(mode rune) bool { return len(m.sets[mode]) > 0 }

// InSet reports whether entry is present in a multi-value mode.
func (m *ModeList) InSet(mode rune, entry string) bool {
	return m.sets[mode][entry]
}

func shift(params []string) (string, []string) {
	if len(params) == 0 {
		return "", nil
	}
	return params[0], params[1:]
}

// Apply updates the list from a MODE change: a mode string such as
// "+ik-l" and its parameters. Each letter is routed to its partition;
// removing an absent list entry is a no-op.
func (m *ModeList) Apply(modes string, params []string) {
	adding := true
	var param string
	for _, mode := range modes {
		switch mode {
		case '+':
			adding = true
		case '-':
			adding = false
		default:
			switch {
			case m.kinds.IsSet(mode):
				param, params = shift(params)
				if param == "" {
					continue
				}
				if adding {
					if m.sets[mode] == nil {
						m.sets[mode] = make(map[string]bool)
					}
					m.sets[mode][param] = true
				} else {
					delete(m.sets[mode], param)
					if len(m.sets[mode]) == 0 {
						delete(m.sets, mode)
					}
				}
			case m.kinds.IsStr(mode):
				if m.kinds.TakesParam(mode, adding) {
					param, params = shift(params)
				}
				if adding {
					m.strs[mode] = param
				} else {
					delete(m.strs, mode)
				}
			default:
				if adding {
					m.bools[mode] = true
				} else {
					delete(m.bools, mode)
				}
			}
		}
	}
}

// Rename replaces oldEntry with newEntry in every status-mode set,
// used when a tracked nick changes.
func (m *ModeList) Rename(statusModes string, matches func(entry string) bool, newEntry string) {
	for _, mode := range statusModes {
		set := m.sets[mode]
		for entry := range set {
			if matches(entry) {
				delete(set, entry)
				set[newEntry] = true
				break
			}
		}
	}
}

// String renders the stored modes as "+letters params", sets expanded
// one entry per letter. Intended for debugging output.
func (m *ModeList) String() string {
	letters := make([]rune, 0, len(m.bools)+len(m.strs)+len(m.sets))
	for r := range m.bools {
		letters = append(letters, r)
	}
	for r := range m.strs {
		letters = append(letters, r)
	}
	for r := range m.sets {
		letters = append(letters, r)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	flags := "+"
	var params []string
	for _, r := range letters {
		if _, ok := m.sets[r]; ok {
			for _, entry := range m.GetSet(r) {
				flags += string(r)
				params = append(params, entry)
			}
			continue
		}
		flags += string(r)
		if v, ok := m.strs[r]; ok {
			params = append(params, v)
		}
	}
	return strings.Join(append([]string{flags}, params...), " ")
}
