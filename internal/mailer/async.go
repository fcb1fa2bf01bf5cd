package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("mailer: queue full")
	ErrClosed    = errors.New("mailer: sender closed")
)

const defaultSendTimeout = 30 * time.Second

type mailJob struct {
	msg Message
}

type worker struct {
	id         int
	workerPool chan chan mailJob
	jobChannel chan mailJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan mailJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan mailJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(mailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobChannel:
				process(job)
			case <-ctx.Done():
				w.logger.Debug("mail worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type AsyncConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// AsyncSender queues messages for a bounded pool of workers that deliver them
// through the wrapped sender. Send never blocks on the network.
type AsyncSender struct {
	next        Sender
	logger      *slog.Logger
	sendTimeout time.Duration

	jobQueue   chan mailJob
	workerPool chan chan mailJob
	workers    int

	mu     sync.RWMutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

func NewAsyncSender(next Sender, config AsyncConfig, logger *slog.Logger) *AsyncSender {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaultSendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &AsyncSender{
		next:        next,
		logger:      logger,
		sendTimeout: config.SendTimeout,
		jobQueue:    make(chan mailJob, config.QueueSize),
		workerPool:  make(chan chan mailJob, config.Workers),
		workers:     config.Workers,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	for i := 0; i < s.workers; i++ {
		newWorker(i, s.workerPool, logger).start(ctx, &s.wg, s.process)
	}
	go s.dispatch()

	logger.Info("mail worker pool started", "workers", s.workers, "queue_size", config.QueueSize)
	return s
}

// Send enqueues msg. It fails fast with ErrQueueFull instead of blocking.
func (s *AsyncSender) Send(_ context.Context, msg Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	select {
	case s.jobQueue <- mailJob{msg: msg}:
		return nil
	default:
		s.logger.Warn("mail queue full, dropping message", "to", msg.To, "queue_capacity", cap(s.jobQueue))
		return ErrQueueFull
	}
}

// dispatch hands queued jobs to idle workers. Once the queue is closed it
// drains what is left and stops the workers.
func (s *AsyncSender) dispatch() {
	defer close(s.done)
	for job := range s.jobQueue {
		select {
		case jobChannel := <-s.workerPool:
			select {
			case jobChannel <- job:
			case <-s.ctx.Done():
				s.logger.Warn("mail dispatcher cancelled, message dropped", "to", job.msg.To)
			}
		case <-s.ctx.Done():
			s.logger.Warn("mail dispatcher cancelled, message dropped", "to", job.msg.To)
		}
	}
	s.cancel()
}

func (s *AsyncSender) process(job mailJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	if err := s.next.Send(ctx, job.msg); err != nil {
		if errors.Is(err, ErrDeliveryDisabled) {
			return
		}
		s.logger.Error("async email delivery failed", "error", err, "to", job.msg.To, "subject", job.msg.Subject)
	}
}

// Shutdown stops accepting messages and waits for queued ones until ctx ends.
func (s *AsyncSender) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobQueue)
	s.mu.Unlock()

	s.logger.Info("shutting down mail worker pool")
	select {
	case <-s.done:
	case <-ctx.Done():
		s.cancel()
		<-s.done
	}
	s.wg.Wait()
	s.logger.Info("mail worker pool shutdown complete")
	return ctx.Err()
}
