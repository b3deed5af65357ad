package worker

import (
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPool_RunsAllJobsBeforeStopReturns(t *testing.T) {
	p := NewPool(4, 128)
	var n atomic.Int32

	for i := 0; i < 100; i++ {
		assert.True(t, p.TrySubmit(func() { n.Add(1) }))
	}
	p.Stop()

	assert.Equal(t, int32(100), n.Load())
}

func TestPool_TrySubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1)
	p.Stop()
	p.Stop()

	assert.False(t, p.TrySubmit(func() {}))
}

func TestPool_TrySubmitFullQueue(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	p := NewPool(1, 1)

	assert.True(t, p.TrySubmit(func() { close(started); <-block }))
	<-started
	assert.True(t, p.TrySubmit(func() {}))
	assert.False(t, p.TrySubmit(func() {}))

	close(block)
	p.Stop()
}

func TestPool_DepthGauge(t *testing.T) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_depth"})
	block := make(chan struct{})
	started := make(chan struct{})
	p := NewPool(1, 8, WithDepthGauge(g))

	p.TrySubmit(func() { close(started); <-block })
	<-started
	p.TrySubmit(func() {})
	p.TrySubmit(func() {})
	assert.Equal(t, float64(2), testutil.ToFloat64(g))

	close(block)
	p.Stop()
	assert.Equal(t, float64(0), testutil.ToFloat64(g))
}
