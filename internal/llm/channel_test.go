package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records dispatch timestamps and can fail or stall per prompt.
type fakeProvider struct {
	mu      sync.Mutex
	times   []time.Time
	prompts []string
	delay   time.Duration
	failOn  string
}

func (f *fakeProvider) Render(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.times = append(f.times, time.Now())
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failOn != "" && req.Prompt == f.failOn {
		return "", errors.New("provider unavailable")
	}
	return "ok:" + req.Prompt, nil
}

func (f *fakeProvider) dispatches() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.times))
	copy(out, f.times)
	return out
}

func (f *fakeProvider) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

func startChannel(t *testing.T, p Provider, cfg ChannelConfig) *Channel {
	t.Helper()
	c := NewChannel(p, cfg)
	stop := c.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = stop(ctx)
	})
	return c
}

// Concurrent submitters must be paced: consecutive dispatches at least
// MinGap apart, regardless of arrival timing.
func TestChannelMinGapPacing(t *testing.T) {
	p := &fakeProvider{}
	c := startChannel(t, p, ChannelConfig{
		MinGap:       30 * time.Millisecond,
		MaxPerWindow: 100,
		Window:       10 * time.Second,
		RetryDelay:   10 * time.Millisecond,
	})

	const n = 6
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			time.Sleep(time.Duration(i%3) * 7 * time.Millisecond)
			_, err := c.Submit(context.Background(), Request{Prompt: "p"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	times := p.dispatches()
	require.Len(t, times, n)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, 20*time.Millisecond,
			"dispatch %d followed too closely (%v)", i, gap)
	}
}

// Exhausting the window quota forces a backoff until the reset timer fires.
func TestChannelQuotaWindow(t *testing.T) {
	p := &fakeProvider{}
	c := startChannel(t, p, ChannelConfig{
		MinGap:       time.Millisecond,
		MaxPerWindow: 3,
		Window:       150 * time.Millisecond,
		RetryDelay:   20 * time.Millisecond,
	})

	start := time.Now()
	for i := 0; i < 7; i++ {
		_, err := c.Submit(context.Background(), Request{Prompt: "q"})
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// 3 派发后等重置，再 3 个，再等一轮重置才轮到第 7 个
	assert.GreaterOrEqual(t, elapsed, 250*time.Millisecond)

	times := p.dispatches()
	require.Len(t, times, 7)
	burst := 0
	for _, ts := range times {
		if ts.Sub(times[0]) < 100*time.Millisecond {
			burst++
		}
	}
	assert.LessOrEqual(t, burst, 3, "more than quota dispatched inside the first window")
}

// Queue order is preserved when requests back up behind a slow provider.
func TestChannelFIFO(t *testing.T) {
	p := &fakeProvider{delay: 80 * time.Millisecond}
	c := startChannel(t, p, ChannelConfig{
		MinGap:       time.Millisecond,
		MaxPerWindow: 100,
		Window:       10 * time.Second,
	})

	prompts := []string{"first", "second", "third", "fourth"}
	var wg sync.WaitGroup
	for _, prompt := range prompts {
		wg.Add(1)
		go func(prompt string) {
			defer wg.Done()
			_, err := c.Submit(context.Background(), Request{Prompt: prompt})
			assert.NoError(t, err)
		}(prompt)
		time.Sleep(25 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, prompts, p.order())
}

// A failing request must not poison the ones queued behind it.
func TestChannelErrorIsolation(t *testing.T) {
	p := &fakeProvider{failOn: "boom"}
	c := startChannel(t, p, ChannelConfig{
		MinGap:       time.Millisecond,
		MaxPerWindow: 100,
		Window:       10 * time.Second,
	})

	_, err := c.Submit(context.Background(), Request{Prompt: "boom"})
	require.Error(t, err)

	text, err := c.Submit(context.Background(), Request{Prompt: "fine"})
	require.NoError(t, err)
	assert.Equal(t, "ok:fine", text)
}

func TestChannelStop(t *testing.T) {
	p := &fakeProvider{}
	c := NewChannel(p, ChannelConfig{MinGap: time.Millisecond})
	stop := c.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))

	_, err := c.Submit(context.Background(), Request{Prompt: "late"})
	assert.ErrorIs(t, err, ErrChannelClosed)
}

// Submitters racing with shutdown must all get an answer, never hang.
func TestChannelStopDoesNotStrandSubmitters(t *testing.T) {
	p := &fakeProvider{delay: 10 * time.Millisecond}
	c := NewChannel(p, ChannelConfig{
		MinGap:       time.Millisecond,
		MaxPerWindow: 1000,
		Window:       10 * time.Second,
	})
	stop := c.Start()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Submit(context.Background(), Request{Prompt: "x"})
			if err != nil {
				assert.ErrorIs(t, err, ErrChannelClosed)
			}
		}()
	}
	go func() {
		time.Sleep(5 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, stop(ctx))
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("submitters stranded after stop")
	}
}

func TestChannelSubmitContextCancelled(t *testing.T) {
	p := &fakeProvider{delay: 200 * time.Millisecond}
	c := startChannel(t, p, ChannelConfig{
		MinGap:       time.Millisecond,
		MaxPerWindow: 100,
		Window:       10 * time.Second,
	})

	// 占住工作协程
	go func() { _, _ = c.Submit(context.Background(), Request{Prompt: "slow"}) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Submit(ctx, Request{Prompt: "cancelled"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
