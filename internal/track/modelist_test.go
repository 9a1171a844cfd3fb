package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModePartitionRouting(t *testing.T) {
	m := NewModeList(DefaultModeKinds())

	m.Apply("+l", []string{"50"})
	v, ok := m.GetStr('l')
	require.True(t, ok)
	assert.Equal(t, "50", v)
	assert.True(t, m.HasStr('l'))

	m.Apply("+b", []string{"*!*@host"})
	assert.Contains(t, m.GetSet('b'), "*!*@host")
	assert.True(t, m.HasSet('b'))

	m.Apply("-b", []string{"*!*@host"})
	assert.NotContains(t, m.GetSet('b'), "*!*@host")
	assert.False(t, m.HasSet('b'))

	// removing an absent entry twice is a no-op, not an error
	m.Apply("-b", []string{"*!*@host"})
	assert.False(t, m.HasSet('b'))
}

func TestModeBool(t *testing.T) {
	m := NewModeList(DefaultModeKinds())

	m.Apply("+i", nil)
	assert.True(t, m.GetBool('i'))

	m.Apply("-i", nil)
	assert.False(t, m.GetBool('i'))
}

func TestModeMixedChange(t *testing.T) {
	m := NewModeList(DefaultModeKinds())

	m.Apply("+ntk-i", []string{"sekrit"})
	assert.True(t, m.GetBool('n'))
	assert.True(t, m.GetBool('t'))
	assert.False(t, m.GetBool('i'))
	key, ok := m.GetStr('k')
	require.True(t, ok)
	assert.Equal(t, "sekrit", key)

	// -k consumes its parameter (type B), -l does not (type C)
	m.Apply("-k-l", []string{"sekrit"})
	assert.False(t, m.HasStr('k'))
	assert.False(t, m.HasStr('l'))
}

func TestModeSetCollapsesDuplicates(t *testing.T) {
	m := NewModeList(DefaultModeKinds())
	m.Apply("+b", []string{"*!*@x"})
	m.Apply("+b", []string{"*!*@x"})
	assert.Len(t, m.GetSet('b'), 1)
}

func TestModeOverwriteSingleValue(t *testing.T) {
	m := NewModeList(DefaultModeKinds())
	m.Apply("+l", []string{"10"})
	m.Apply("+l", []string{"20"})
	v, _ := m.GetStr('l')
	assert.Equal(t, "20", v)
}

func TestStatusModesAreSets(t *testing.T) {
	m := NewModeList(DefaultModeKinds())
	m.Apply("+o", []string{"alice"})
	m.Apply("+o", []string{"bob"})
	assert.ElementsMatch(t, []string{"alice", "bob"}, m.GetSet('o'))

	m.Apply("-o", []string{"alice"})
	assert.Equal(t, []string{"bob"}, m.GetSet('o'))
}

func TestParseModeKinds(t *testing.T) {
	k := ParseModeKinds("eIbq,k,flj,CFLMPQScgimnprstuz", "ohv")

	assert.True(t, k.IsSet('b'))
	assert.True(t, k.IsSet('q'))
	assert.True(t, k.IsSet('o'), "prefix modes belong to the list partition")
	assert.True(t, k.IsStr('k'))
	assert.True(t, k.IsStr('f'))
	assert.False(t, k.IsSet('i'))
	assert.False(t, k.IsStr('i'))

	assert.True(t, k.TakesParam('k', false), "type B consumes a parameter on unset")
	assert.False(t, k.TakesParam('f', false), "type C consumes a parameter only on set")
	assert.True(t, k.TakesParam('f', true))
}

func TestParseModeKindsShortToken(t *testing.T) {
	// fewer than four groups must not panic
	k := ParseModeKinds("b,k", "")
	assert.True(t, k.IsSet('b'))
	assert.True(t, k.IsStr('k'))
}

func TestParsePrefixTable(t *testing.T) {
	p := ParsePrefixTable("(qaohv)~&@%+")
	mode, ok := p.Mode('@')
	require.True(t, ok)
	assert.Equal(t, 'o', mode)

	modes, nick := p.StripSigils("@+alice")
	assert.Equal(t, []rune{'o', 'v'}, modes)
	assert.Equal(t, "alice", nick)

	modes, nick = p.StripSigils("bob")
	assert.Empty(t, modes)
	assert.Equal(t, "bob", nick)
}

func TestParsePrefixTableMalformed(t *testing.T) {
	// falls back to the conventional table
	p := ParsePrefixTable("garbage")
	mode, ok := p.Mode('@')
	require.True(t, ok)
	assert.Equal(t, 'o', mode)
}

func TestModeListString(t *testing.T) {
	m := NewModeList(DefaultModeKinds())
	m.Apply("+ntl", []string{"25"})
	m.Apply("+b", []string{"*!*@x"})
	assert.Equal(t, "+blnt *!*@x 25", m.String())
}
