package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/transform"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func TestUndo(t *testing.T) {
	st := NewStore(time.Hour, 5)
	s := st.Create()

	err := s.Do(func(s *Session) error {
		_, err := s.Undo()
		assert.ErrorIs(t, err, ErrNothingToUndo)

		s.Push("book.xlsx", []byte("v1"), "upload")
		s.Push("book.xlsx", []byte("v2"), "recipe")
		s.SetReport(&transform.Report{Recipe: "recipe"})

		prev, err := s.Undo()
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), prev.Data)

		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, "upload", cur.Label)
		assert.Nil(t, s.Report(), "undo clears the stale report")

		_, err = s.Undo()
		assert.ErrorIs(t, err, ErrNothingToUndo)
		return nil
	})
	require.NoError(t, err)
}

func TestHistoryBounded(t *testing.T) {
	st := NewStore(time.Hour, 2)
	s := st.Create()
	_ = s.Do(func(s *Session) error {
		for _, v := range []string{"v1", "v2", "v3", "v4"} {
			s.Push("b.xlsx", []byte(v), v)
		}
		hist := s.History()
		require.Len(t, hist, 2)
		assert.Equal(t, "v2", hist[0].Label)
		assert.Equal(t, "v3", hist[1].Label)
		return nil
	})
}

func TestReset(t *testing.T) {
	s := NewStore(time.Hour, 2).Create()
	_ = s.Do(func(s *Session) error {
		s.Push("b.xlsx", []byte("v1"), "upload")
		s.Set("recipe", "steps: []")
		s.Reset()
		_, ok := s.Current()
		assert.False(t, ok)
		assert.Empty(t, s.History())
		assert.Empty(t, s.Get("recipe"))
		return nil
	})
}

func TestStoreExpiry(t *testing.T) {
	clock := newClock()
	st := NewStore(10*time.Minute, 3, WithClock(clock.Now))

	a := st.Create()
	b := st.Create()
	assert.NotEqual(t, a.ID(), b.ID())

	clock.Advance(8 * time.Minute)
	_, ok := st.Get(a.ID())
	require.True(t, ok)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, st.Sweep(clock.Now()), "only the idle session expires")
	_, ok = st.Get(b.ID())
	assert.False(t, ok)
	_, ok = st.Get(a.ID())
	assert.True(t, ok)

	clock.Advance(11 * time.Minute)
	_, ok = st.Get(a.ID())
	assert.False(t, ok, "expired sessions are not returned before a sweep")
	assert.Equal(t, 0, st.Len())
}

func TestTouchAndDelete(t *testing.T) {
	clock := newClock()
	st := NewStore(time.Minute, 1, WithClock(clock.Now))
	s := st.Create()

	clock.Advance(50 * time.Second)
	st.Touch(s.ID())
	clock.Advance(50 * time.Second)
	assert.Zero(t, st.Sweep(clock.Now()))

	st.Delete(s.ID())
	_, ok := st.Get(s.ID())
	assert.False(t, ok)
}

func TestDoSerializes(t *testing.T) {
	s := NewStore(time.Hour, 0).Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(s *Session) error {
				n := len(s.Get("n"))
				s.Set("n", string(make([]byte, n+1)))
				return nil
			})
		}()
	}
	wg.Wait()

	_ = s.Do(func(s *Session) error {
		assert.Len(t, s.Get("n"), 50)
		return nil
	})
}

func TestDoKeepsCallOrder(t *testing.T) {
	s := NewStore(time.Hour, 0).Create()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = s.Do(func(*Session) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	const callers = 20
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(*Session) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Wait until caller i is queued before starting the next one.
		require.Eventually(t, func() bool { return s.turn.queued() == i+2 }, time.Second, time.Millisecond)
	}
	close(release)
	wg.Wait()

	want := make([]int, callers)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, order)
}

func TestRunStopsWithContext(t *testing.T) {
	st := NewStore(time.Nanosecond, 1)
	st.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
