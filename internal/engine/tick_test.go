package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kindred/internal/engine"
)

func TestEngine_RunYears(t *testing.T) {
	e := engine.NewEngine()
	var years []int
	e.OnYear = func(year int) error {
		years = append(years, year)
		return nil
	}
	require.NoError(t, e.RunYears(3))
	assert.Equal(t, []int{1, 2, 3}, years)
	assert.Equal(t, 3, e.Year)

	boom := errors.New("boom")
	e.OnYear = func(year int) error {
		if year == 5 {
			return boom
		}
		return nil
	}
	assert.ErrorIs(t, e.RunYears(10), boom)
	assert.Equal(t, 5, e.Year)
}

func TestEngine_RunStop(t *testing.T) {
	e := engine.NewEngine()
	e.Interval = time.Millisecond
	e.OnYear = func(year int) error {
		if year == 3 {
			e.Stop()
		}
		return nil
	}
	require.NoError(t, e.Run())
	assert.Equal(t, 3, e.Year)
	assert.False(t, e.Running())
}

func TestEngine_stopBeforeRun(t *testing.T) {
	e := engine.NewEngine()
	e.Interval = time.Millisecond
	e.OnYear = func(int) error { return nil }
	e.Stop()
	e.Stop()

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		e.Stop()
		t.Fatal("Run ignored an earlier Stop")
	}
	assert.Zero(t, e.Year)
	assert.False(t, e.Running())
}

func TestEngine_stopInterruptsWait(t *testing.T) {
	e := engine.NewEngine()
	e.Interval = time.Hour
	stepped := make(chan struct{}, 1)
	e.OnYear = func(int) error {
		stepped <- struct{}{}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	<-stepped
	e.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not cut the wait short")
	}
	assert.Equal(t, 1, e.Year)
}

func TestEngine_RunError(t *testing.T) {
	e := engine.NewEngine()
	e.Interval = time.Millisecond
	boom := errors.New("boom")
	e.OnYear = func(int) error { return boom }
	assert.ErrorIs(t, e.Run(), boom)
	assert.Equal(t, 1, e.Year)
}

func TestEngine_pause(t *testing.T) {
	e := engine.NewEngine()
	assert.Equal(t, 1.0, e.Speed())
	e.SetSpeed(0)
	e.Interval = time.Millisecond

	stepped := make(chan struct{}, 1)
	e.OnYear = func(int) error {
		select {
		case stepped <- struct{}{}:
		default:
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	assert.Eventually(t, e.Running, time.Second, 5*time.Millisecond)
	select {
	case <-stepped:
		t.Fatal("stepped while paused")
	case <-time.After(150 * time.Millisecond):
	}

	e.SetSpeed(10)
	select {
	case <-stepped:
	case <-time.After(2 * time.Second):
		t.Fatal("no step after resume")
	}

	e.Stop()
	require.NoError(t, <-done)
}

func TestEngine_drivesSimulation(t *testing.T) {
	sim := newSim(t, 11, 30)
	e := engine.NewEngine()
	e.OnYear = func(int) error { return sim.TickYear() }
	require.NoError(t, e.RunYears(4))
	assert.Equal(t, 4, sim.CurrentYear())
}
