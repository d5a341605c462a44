// Package teamqueue serializes all mutations for a given team.
//
// The aggregator's read-sum-write cycle is not atomic against the store:
// two judges submitting for the same team concurrently could both read
// the same evaluation set before either write lands. Every mutation for
// a team therefore runs on that team's mailbox goroutine; mutations for
// different teams interleave freely.
package teamqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/brianes/pitchscore/pkg/logger"
	"github.com/brianes/pitchscore/pkg/metrics"
)

const defaultMailboxBuffer = 128

// Job is a unit of work bound to one team.
type Job func(ctx context.Context) error

// Runner owns one mailbox goroutine per team id. Mailboxes live until
// Close reclaims them.
type Runner struct {
	mu        sync.Mutex
	mailboxes map[string]*mailbox
	buffer    int
	closed    bool
	wg        sync.WaitGroup

	logger logger.Logger
}

type mailbox struct {
	jobs chan submission
	quit chan struct{}
}

type submission struct {
	ctx  context.Context
	job  Job
	done chan error
}

// New creates a Runner with configuration options.
func New(opts ...Option) *Runner {
	r := &Runner{
		mailboxes: make(map[string]*mailbox),
		buffer:    defaultMailboxBuffer,
		logger:    logger.Get().Named("teamqueue"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs job on the team's mailbox and waits for it to finish.
// Jobs for one team execute in submission order, one at a time.
func (r *Runner) Do(ctx context.Context, teamID string, job Job) error {
	box, err := r.mailbox(teamID)
	if err != nil {
		return err
	}

	sub := submission{ctx: ctx, job: job, done: make(chan error, 1)}
	select {
	case box.jobs <- sub:
	case <-ctx.Done():
		return fmt.Errorf("enqueue for team %s: %w", teamID, ctx.Err())
	}

	select {
	case err := <-sub.done:
		return err
	case <-ctx.Done():
		// The job may still run to completion; the caller just stops waiting.
		return fmt.Errorf("wait for team %s: %w", teamID, ctx.Err())
	}
}

func (r *Runner) mailbox(teamID string) (*mailbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	box, ok := r.mailboxes[teamID]
	if !ok {
		box = &mailbox{
			jobs: make(chan submission, r.buffer),
			quit: make(chan struct{}),
		}
		r.mailboxes[teamID] = box
		r.wg.Add(1)
		go r.run(teamID, box)
		metrics.UpdateTeamMailboxes(len(r.mailboxes))
	}
	return box, nil
}

func (r *Runner) run(teamID string, box *mailbox) {
	defer r.wg.Done()
	for {
		select {
		case sub := <-box.jobs:
			r.process(teamID, sub)
		case <-box.quit:
			// Flush whatever was queued before shutdown, then exit.
			for {
				select {
				case sub := <-box.jobs:
					r.process(teamID, sub)
				default:
					return
				}
			}
		}
	}
}

func (r *Runner) process(teamID string, sub submission) {
	if err := sub.ctx.Err(); err != nil {
		sub.done <- err
		return
	}
	err := sub.job(sub.ctx)
	if err != nil {
		r.logger.Error(sub.ctx, "team job failed",
			logger.String("teamID", teamID),
			logger.Error(err),
		)
	}
	sub.done <- err
}

// Len returns the number of live mailboxes.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mailboxes)
}

// Close stops accepting jobs, waits for queued jobs to drain and
// releases every mailbox goroutine. The jobs channels are never closed,
// so a Do racing Close cannot panic; its job either runs during the
// flush or is rejected with ErrClosed.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	boxes := r.mailboxes
	r.mailboxes = make(map[string]*mailbox)
	r.mu.Unlock()

	for _, box := range boxes {
		close(box.quit)
	}
	r.wg.Wait()
	metrics.UpdateTeamMailboxes(0)
	return nil
}
