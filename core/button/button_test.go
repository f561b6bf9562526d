package button

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		prev, curr bool
		want       State
	}{
		{false, false, Up},
		{false, true, Pressed},
		{true, true, Down},
		{true, false, Released},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.prev, c.curr))
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Up", Up.String())
	require.Equal(t, "Pressed", Pressed.String())
	require.Equal(t, "Down", Down.String())
	require.Equal(t, "Released", Released.String())
	require.Equal(t, "Invalid", State(99).String())
}
