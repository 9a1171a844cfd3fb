package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ircstate/ircstate/internal/track"
)

func TestFeaturesRegisterAndLookup(t *testing.T) {
	f := NewFeatures()

	require.NoError(t, f.Register("alpha", 1))
	require.NoError(t, f.Register("beta", 2))
	assert.Error(t, f.Register("alpha", 3), "duplicate registration must be refused")

	v, ok := f.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, 1, v, "first owner keeps the name")

	_, ok = f.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, f.Names())
}

func TestFeaturesTracker(t *testing.T) {
	f := NewFeatures()
	_, ok := f.Tracker()
	assert.False(t, ok)

	tr := track.New(nil)
	require.NoError(t, f.Register(track.FeatureName, tr))
	got, ok := f.Tracker()
	require.True(t, ok)
	assert.Same(t, tr, got)
}

func TestFeaturesTrackerWrongType(t *testing.T) {
	f := NewFeatures()
	require.NoError(t, f.Register(track.FeatureName, "not a tracker"))
	_, ok := f.Tracker()
	assert.False(t, ok)
}
