package serializer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Harvester/internal/telemetry"
)

// ErrSuperseded — задача заменена более новой с тем же ключом до запуска.
var ErrSuperseded = errors.New("task superseded by a newer one with the same key")

// Task — единица работы.
type Task func() error

// entry — элемент упорядоченной очереди.
type entry struct {
	key  string
	run  Task
	done chan error

	next *entry
}

// Serializer — FIFO-исполнитель с одной задачей в работе.
type Serializer struct {
	logger *slog.Logger

	mu    sync.Mutex
	head  *entry
	tail  *entry
	index map[string]*entry
	busy  bool
}

// New создаёт пустой Serializer.
func New(logger *slog.Logger) *Serializer {
	return &Serializer{
		logger: telemetry.WithComponent(telemetry.OrDefault(logger), "serializer"),
		index:  make(map[string]*entry),
	}
}

// Add ставит задачу в очередь под ключом key и запускает планирование.
//
// Возвращённый канал получает ровно одно значение: результат run или
// ErrSuperseded, если до запуска её заменили задачей с тем же ключом.
func (s *Serializer) Add(key string, run Task) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	if e, ok := s.index[key]; ok {
		superseded := e.done
		e.run = run
		e.done = done
		superseded <- ErrSuperseded
		s.logger.Info("replacing pending task", "key", key)
	} else {
		s.pushLocked(&entry{key: key, run: run, done: done})
		s.logger.Info("adding async task", "key", key)
	}
	telemetry.SerializerPending.Set(float64(len(s.index)))
	s.mu.Unlock()

	s.schedule()
	return done
}

// Len возвращает количество задач, ожидающих запуска.
func (s *Serializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Busy — выполняется ли сейчас задача.
func (s *Serializer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// schedule запускает самую старую задачу, если исполнитель свободен.
func (s *Serializer) schedule() {
	s.mu.Lock()
	if s.busy || s.head == nil {
		s.mu.Unlock()
		return
	}
	e := s.popLocked()
	s.busy = true
	telemetry.SerializerPending.Set(float64(len(s.index)))
	s.mu.Unlock()

	go s.execute(e)
}

// execute выполняет задачу и переходит к следующей.
func (s *Serializer) execute(e *entry) {
	s.logger.Info("executing async task", "key", e.key)

	err := safeRun(e.run)
	if err != nil {
		s.logger.Error("task execution failed", "key", e.key, "error", err)
	} else {
		s.logger.Info("task executed successfully", "key", e.key, "pending", s.Len())
	}
	e.done <- err

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.schedule()
}

func (s *Serializer) pushLocked(e *entry) {
	if s.tail != nil {
		s.tail.next = e
	} else {
		s.head = e
	}
	s.tail = e
	s.index[e.key] = e
}

func (s *Serializer) popLocked() *entry {
	e := s.head
	s.head = e.next
	if s.head == nil {
		s.tail = nil
	}
	e.next = nil
	delete(s.index, e.key)
	return e
}

func safeRun(run Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panic: %v", rec)
		}
	}()
	return run()
}
