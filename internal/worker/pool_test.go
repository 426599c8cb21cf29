package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{}
}

// drain collects results while jobs run and returns a function that waits
// for the pool and hands back everything collected
func drain(p *Pool) func() []Result {
	c := NewResultCollector()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range p.Results() {
			c.Add(r)
		}
	}()
	return func() []Result {
		p.Wait()
		<-done
		return c.Results()
	}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPool(context.Background(), tt.in).workers, "NewPool(%d)", tt.in)
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	wait := drain(pool)

	var executed int32
	count := 10
	for i := 0; i < count; i++ {
		require.True(t, pool.Submit(&mockJob{executed: &executed}))
	}

	results := wait()
	assert.Len(t, results, count)
	assert.Equal(t, int32(count), atomic.LoadInt32(&executed))
}

type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	j.start()
	time.Sleep(j.duration)
	j.end()
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 4
	pool := NewPool(context.Background(), workers)
	pool.Start()
	wait := drain(pool)

	var current, maxConcurrent, completed int32
	var mu sync.Mutex

	totalJobs := 20
	for i := 0; i < totalJobs; i++ {
		pool.Submit(&concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
			duration: 5 * time.Millisecond,
		})
	}

	wait()
	assert.Equal(t, int32(totalJobs), atomic.LoadInt32(&completed))

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxConcurrent, int32(workers))
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	wait := drain(pool)

	pool.Submit(&mockJob{shouldErr: true})
	pool.Submit(&mockJob{})

	results := wait()
	require.Len(t, results, 2)

	failed := 0
	for _, res := range results {
		if res.GetError() != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestResultCollector(t *testing.T) {
	c := NewResultCollector()
	c.Add(&mockResult{})
	c.Add(&mockResult{err: errors.New("err")})

	res := c.Results()
	assert.Len(t, res, 2)

	// the returned slice is a copy
	res[0] = nil
	assert.NotNil(t, c.Results()[0])
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		accepted := false
		for i := 0; i < 200; i++ {
			accepted = accepted || pool.Submit(&mockJob{})
		}
		done <- accepted
	}()

	select {
	case accepted := <-done:
		assert.False(t, accepted, "queue has free slots but the pool is cancelled")
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Shutdown")
	}
}

func TestPool_WaitReleasesContext(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	wait := drain(pool)

	require.True(t, pool.Submit(&mockJob{}))
	assert.Len(t, wait(), 1)

	assert.ErrorIs(t, pool.ctx.Err(), context.Canceled)
	assert.False(t, pool.Submit(&mockJob{}))
}

func TestPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()
	wait := drain(pool)

	pool.Submit(&mockJob{duration: time.Minute})
	cancel()

	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after parent cancellation")
	}
}
