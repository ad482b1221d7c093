package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/clubstack/clubstack/internal/pkg/metrics/counter"
)

const counterFlushInterval = 5 * time.Second

// Manager owns the queue lifecycle plus the periodic check-in counter
// flush from Redis into MySQL.
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	running            bool
	mu                 sync.Mutex
}

var (
	managerInstance *Manager
	managerOnce     sync.Once
)

// GetManager returns the singleton job queue manager
func GetManager() *Manager {
	managerOnce.Do(func() {
		managerInstance = &Manager{
			queue: NewQueue(2),
		}
	})
	return managerInstance
}

// GetQueue exposes the underlying queue for enqueueing jobs
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start launches the queue workers and the counter flush worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	m.queue.Start()

	m.stopCh = make(chan struct{})
	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker()

	m.running = true
	log.Info("[JobQueue Manager] Started")
}

// Stop shuts down the tickers, the flush worker and the queue
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}

	m.counterFlushTicker.Stop()
	close(m.stopCh)
	m.running = false

	m.wg.Wait()
	m.stopCh = nil
	m.queue.Stop()

	// Final flush so check-in counts are not lost on shutdown
	if err := counter.FlushAll(); err != nil {
		log.Errorf("[JobQueue Manager] Final counter flush error: %v", err)
	}

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes check-in counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := counter.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}
