package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is a scheduled unit of work. It runs on the scheduler's goroutine
// for its task, so a slow fn delays only its own next tick.
type TaskFn func()

// Scheduler runs named periodic and one-shot background tasks. Registering a
// name twice replaces the earlier task.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerTask
	timers  map[string]*time.Timer
	logger  *zap.Logger
	done    chan struct{}
}

type tickerTask struct {
	ticker *time.Ticker
	cancel chan struct{}
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]*tickerTask),
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// AddTicker runs fn every interval until the task is removed or the
// scheduler stops. A panicking fn is logged and its ticker keeps going.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old.cancel)
		delete(s.tickers, name)
	}

	task := &tickerTask{
		ticker: time.NewTicker(interval),
		cancel: make(chan struct{}),
	}
	s.tickers[name] = task

	go func() {
		defer task.ticker.Stop()
		for {
			select {
			case <-task.ticker.C:
				s.run(name, fn)
			case <-task.cancel:
				return
			case <-s.done:
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after delay. Re-registering the name cancels the
// pending run.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.Stop()
	}
	s.timers[name] = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			delete(s.timers, name)
			s.mu.Unlock()
		}()
		s.run(name, fn)
	})
}

func (s *Scheduler) run(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name), zap.Any("recover", r))
		}
	}()
	fn()
}

// Remove cancels the named ticker or pending delay, if any.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tickers[name]; ok {
		close(task.cancel)
		delete(s.tickers, name)
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// Stop cancels every task. Safe to call more than once.
func (s *Scheduler) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// ListTickers returns the names of the registered ticker tasks.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	return names
}
