// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mask

import (
	"fmt"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Pool runs best-effort background jobs on a fixed number of goroutines.
// Jobs that fail or panic are logged and dropped.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan func() error
	done   chan struct{}
}

// NewPool starts a Pool with parallelism workers and room for queueLen
// pending jobs.
func NewPool(parallelism, queueLen int) *Pool {
	if parallelism <= 0 {
		parallelism = 1
	}
	p := &Pool{
		jobs: make(chan func() error, queueLen),
		done: make(chan struct{}),
	}
	go func() {
		_ = traverse.Each(parallelism, func(int) error {
			for job := range p.jobs {
				if err := runJob(job); err != nil {
					log.Error.Printf("mask: background job: %v", err)
				}
			}
			return nil
		})
		close(p.done)
	}()
	return p
}

func runJob(job func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job()
}

// TrySubmit queues job without blocking.  It returns false if the queue is
// full or the pool is closed.
func (p *Pool) TrySubmit(job func() error) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs, and waits for queued jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	<-p.done
}
