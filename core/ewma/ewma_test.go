package ewma

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeAlpha(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	_, err = New(1.5)
	require.Error(t, err)
	_, err = New(-0.1)
	require.Error(t, err)
}

func TestFirstObservationSeeds(t *testing.T) {
	e, err := New(0.5)
	require.NoError(t, err)
	_, ok := e.Get()
	require.False(t, ok)

	e.Observe(100)
	v, ok := e.Get()
	require.True(t, ok)
	require.Equal(t, 100.0, v)
}

func TestObserveSmooths(t *testing.T) {
	e, err := New(0.5)
	require.NoError(t, err)
	e.Observe(100)
	e.Observe(200)
	v, ok := e.Get()
	require.True(t, ok)
	require.Equal(t, 150.0, v)
}

func TestAlphaOneIsLatestSampleWins(t *testing.T) {
	e, err := New(1.0)
	require.NoError(t, err)
	e.Observe(10)
	e.Observe(20)
	v, _ := e.Get()
	require.Equal(t, 20.0, v)
}
