package serializer

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// blocker занимает исполнитель до закрытия release.
func blocker(t *testing.T, s *Serializer) (release func(), done <-chan error) {
	t.Helper()
	started := make(chan struct{})
	ch := make(chan struct{})
	done = s.Add("blocker", func() error {
		close(started)
		<-ch
		return nil
	})
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("blocker never started")
	}
	return func() { close(ch) }, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
		return nil
	}
}

func TestSerializer_RunsTask(t *testing.T) {
	s := New(nil)

	done := s.Add("a", func() error { return nil })

	if err := wait(t, done); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSerializer_TaskCarriesCallerContext(t *testing.T) {
	s := New(nil)
	release, _ := blocker(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Add("a", func() error { return ctx.Err() })

	// Отмена до запуска видна задаче через замыкание
	cancel()
	release()

	if err := wait(t, done); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from captured ctx, got %v", err)
	}
}

func TestSerializer_FIFOOrder(t *testing.T) {
	s := New(nil)
	release, _ := blocker(t, s)

	var mu sync.Mutex
	var events []string
	record := func(ev string) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}

	d1 := s.Add("t1", func() error {
		record("t1 start")
		time.Sleep(10 * time.Millisecond)
		record("t1 end")
		return nil
	})
	d2 := s.Add("t2", func() error {
		record("t2 start")
		record("t2 end")
		return nil
	})

	if s.Len() != 2 {
		t.Errorf("expected 2 pending tasks, got %d", s.Len())
	}

	release()
	wait(t, d1)
	wait(t, d2)

	want := []string{"t1 start", "t1 end", "t2 start", "t2 end"}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestSerializer_NeverRunsConcurrently(t *testing.T) {
	s := New(nil)

	var running, maxRunning atomic.Int32
	var dones []<-chan error
	for i := 0; i < 20; i++ {
		dones = append(dones, s.Add(strconv.Itoa(i), func() error {
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			return nil
		}))
	}

	for _, d := range dones {
		wait(t, d)
	}
	if maxRunning.Load() != 1 {
		t.Errorf("expected at most one running task, got %d", maxRunning.Load())
	}
}

func TestSerializer_CoalescesPendingKey(t *testing.T) {
	s := New(nil)
	release, _ := blocker(t, s)

	var ranA, ranB atomic.Int32
	doneA := s.Add("K", func() error { ranA.Add(1); return nil })
	doneB := s.Add("K", func() error { ranB.Add(1); return nil })

	if s.Len() != 1 {
		t.Errorf("duplicate key should coalesce, got %d pending", s.Len())
	}

	if err := wait(t, doneA); !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected ErrSuperseded for replaced task, got %v", err)
	}

	release()
	if err := wait(t, doneB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ranA.Load() != 0 {
		t.Error("replaced task A must not run")
	}
	if ranB.Load() != 1 {
		t.Errorf("task B should run exactly once, got %d", ranB.Load())
	}
}

func TestSerializer_ReplaceKeepsPosition(t *testing.T) {
	s := New(nil)
	release, _ := blocker(t, s)

	var mu sync.Mutex
	var order []string
	task := func(name string) Task {
		return func() error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	s.Add("A", task("A1"))
	s.Add("B", task("B"))
	doneA := s.Add("A", task("A2"))
	doneC := s.Add("C", task("C"))

	release()
	wait(t, doneA)
	wait(t, doneC)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"A2", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestSerializer_RunningKeyIsNotReplaced(t *testing.T) {
	s := New(nil)

	started := make(chan struct{})
	release := make(chan struct{})
	first := s.Add("K", func() error {
		close(started)
		<-release
		return nil
	})
	<-started

	var ranSecond atomic.Int32
	second := s.Add("K", func() error { ranSecond.Add(1); return nil })

	close(release)
	if err := wait(t, first); err != nil {
		t.Fatalf("running task should complete normally, got %v", err)
	}
	if err := wait(t, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranSecond.Load() != 1 {
		t.Error("task added while its key was running should run after it")
	}
}

func TestSerializer_FailureDoesNotStopQueue(t *testing.T) {
	s := New(nil)
	release, _ := blocker(t, s)

	failing := s.Add("fail", func() error { return errors.New("scrape failed") })
	panicking := s.Add("panic", func() error { panic("boom") })
	ok := s.Add("ok", func() error { return nil })

	release()

	if err := wait(t, failing); err == nil || err.Error() != "scrape failed" {
		t.Errorf("expected task error to be delivered, got %v", err)
	}
	if err := wait(t, panicking); err == nil {
		t.Error("panic should be converted into an error")
	}
	if err := wait(t, ok); err != nil {
		t.Errorf("queue should proceed after failures, got %v", err)
	}
	if s.Busy() {
		// execute сбрасывает busy после отправки результата
		time.Sleep(10 * time.Millisecond)
		if s.Busy() {
			t.Error("serializer should be idle")
		}
	}
}

// Свойство: при заблокированном исполнителе порядок выполнения — порядок
// первого появления ключа, и для каждого ключа выполняется последняя версия.
func TestSerializer_OrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 50; iter++ {
		s := New(nil)
		release, _ := blocker(t, s)

		var mu sync.Mutex
		var got []string

		var firstSeen []string
		latest := make(map[string]int)
		var dones []<-chan error

		n := 1 + rng.Intn(30)
		for i := 0; i < n; i++ {
			key := strconv.Itoa(rng.Intn(8))
			version := i
			if _, ok := latest[key]; !ok {
				firstSeen = append(firstSeen, key)
			}
			latest[key] = version

			dones = append(dones, s.Add(key, func() error {
				mu.Lock()
				got = append(got, key+"@"+strconv.Itoa(version))
				mu.Unlock()
				return nil
			}))
		}

		release()
		for _, d := range dones {
			wait(t, d)
		}

		mu.Lock()
		if len(got) != len(firstSeen) {
			t.Fatalf("iteration %d: expected %d executions, got %v", iter, len(firstSeen), got)
		}
		for i, key := range firstSeen {
			want := key + "@" + strconv.Itoa(latest[key])
			if got[i] != want {
				t.Fatalf("iteration %d: position %d expected %s, got %v", iter, i, want, got)
			}
		}
		mu.Unlock()
	}
}
