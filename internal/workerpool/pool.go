/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package workerpool implements a bounded pool of workers consuming
// independent units of work from a bounded FIFO, with cooperative shutdown.
package workerpool

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrStopped is returned by Submit once the pool has been shut down.
var ErrStopped = errors.New("workerpool: pool is stopped")

// Task is an opaque unit of work. Tasks submitted from different readiness
// events carry no ordering guarantee relative to each other.
type Task func()

// Pool is a fixed-size set of worker goroutines draining tasks from a
// bounded channel.
type Pool struct {
	tasks  chan Task
	wg     sync.WaitGroup
	logger zerolog.Logger

	mu      sync.Mutex
	stopped bool
}

// New starts a pool of n workers reading from a queue of the given
// capacity.
func New(n, queueCapacity int, logger zerolog.Logger) *Pool {
	if n <= 0 {
		n = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = n
	}

	p := &Pool{
		tasks:  make(chan Task, queueCapacity),
		logger: logger.With().Str("component", "workerpool").Logger(),
	}

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i)
	}

	p.logger.Info().Int("workers", n).Int("queue_capacity", queueCapacity).Msg("worker pool started")
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.runTask(id, task)
	}
}

func (p *Pool) runTask(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Int("worker", id).Interface("panic", r).Msg("worker task panicked")
		}
	}()
	task()
}

// Submit enqueues task for execution. It returns ErrStopped if the pool has
// already been shut down.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.mu.Unlock()

	p.tasks <- task
	return nil
}

// Stop signals the pool to stop accepting new work, drains any tasks
// already enqueued, and blocks until every worker has returned.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.tasks)
	p.wg.Wait()
	p.logger.Info().Msg("worker pool stopped")
}
