package timing

import (
	"bytes"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tc(name string) outcome.TestCase {
	return outcome.TestCase{Package: "p", Name: name}
}

func TestRecorder_Empty(t *testing.T) {
	r := NewRecorder()
	assert.Equal(t, Stats{}, r.Stats())
	assert.Empty(t, r.Slowest(5))
}

func TestRecorder_Stats(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.Record(tc("T"), time.Duration(i)*time.Millisecond)
	}

	s := r.Stats()
	assert.Equal(t, int64(100), s.Count)
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
}

func TestRecorder_Slowest(t *testing.T) {
	r := NewRecorder()
	r.Record(tc("TestFast"), time.Millisecond)
	r.Record(tc("TestSlowB"), time.Second)
	r.Record(tc("TestSlowA"), time.Second)
	r.Record(tc("TestMid"), 10*time.Millisecond)
	r.Record(tc("TestNegative"), -time.Second)

	top := r.Slowest(3)
	require.Len(t, top, 3)
	assert.Equal(t, "TestSlowA", top[0].Test.Name)
	assert.Equal(t, "TestSlowB", top[1].Test.Name)
	assert.Equal(t, "TestMid", top[2].Test.Name)

	assert.Len(t, r.Slowest(-1), 5)
}

func TestRecorder_Render(t *testing.T) {
	r := NewRecorder()
	r.Record(tc("TestSlow"), 1500*time.Millisecond)
	r.Record(tc("TestFast"), 200*time.Microsecond)

	var buf bytes.Buffer
	r.Render(&buf, 10)

	out := buf.String()
	assert.Contains(t, out, "TestSlow (p)")
	assert.Contains(t, out, "1.50s")
	assert.Contains(t, out, "200µs")
	assert.Contains(t, out, "2 tests")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2.00s", formatDuration(2*time.Second))
	assert.Equal(t, "15ms", formatDuration(15*time.Millisecond))
	assert.Equal(t, "7µs", formatDuration(7*time.Microsecond))
}
