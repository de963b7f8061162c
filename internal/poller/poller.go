// Package poller implements the client-side synchronization contract for
// a duel: a bounded-interval re-fetch of the challenge record, reconciled
// against local optimistic state. The server knows nothing of polling; it
// only serves idempotent reads.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"mathduel-backend/internal/models"
)

// FetchFunc retrieves the current challenge record, typically via
// GET /challenges/{id}.
type FetchFunc func(ctx context.Context) (*models.Challenge, error)

type Poller struct {
	selfID   uuid.UUID
	interval time.Duration
	clock    clockwork.Clock
	fetch    FetchFunc
	onUpdate func(*models.Challenge)

	mu    sync.Mutex
	local models.Progress // optimistic progress for the caller's own side
	view  *models.Challenge
}

// New builds a poller for one participant's view of a duel. onUpdate, if
// non-nil, is invoked with the reconciled record after every successful
// fetch, including the terminal one.
func New(selfID uuid.UUID, interval time.Duration, clock clockwork.Clock, fetch FetchFunc, onUpdate func(*models.Challenge)) *Poller {
	return &Poller{
		selfID:   selfID,
		interval: interval,
		clock:    clock,
		fetch:    fetch,
		onUpdate: onUpdate,
	}
}

// Run polls until the challenge reaches a terminal status or ctx is
// cancelled. A failed fetch is retried on the next tick; it never stops
// the poller and never blocks answer submission, which happens on a
// separate request path.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			fetched, err := p.fetch(ctx)
			if err != nil {
				log.Printf("Poll fetch failed, retrying next tick: %v", err)
				continue
			}

			view := p.reconcile(fetched)
			if p.onUpdate != nil {
				p.onUpdate(view)
			}
			if view.IsTerminal() {
				return nil
			}
		}
	}
}

// ApplyLocal records locally applied optimistic progress for the
// poller's own side, so a lagging fetch can never regress it.
func (p *Poller) ApplyLocal(progress models.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.local = maxProgress(p.local, progress)
	if p.view != nil {
		own := p.ownProgress(p.view)
		*own = maxProgress(*own, p.local)
	}
}

// Snapshot returns the current reconciled view, or nil before the first
// successful fetch.
func (p *Poller) Snapshot() *models.Challenge {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view == nil {
		return nil
	}
	cp := *p.view
	return &cp
}

// reconcile merges a fetched record into the local view. The caller's own
// progress takes the per-field maximum of local and fetched state, since
// the fetch may lag a just-submitted answer. The opponent's side is taken
// verbatim: the client has no better information about it.
func (p *Poller) reconcile(fetched *models.Challenge) *models.Challenge {
	p.mu.Lock()
	defer p.mu.Unlock()

	merged := *fetched
	own := p.ownProgress(&merged)
	*own = maxProgress(p.local, *own)
	p.local = *own
	p.view = &merged

	cp := merged
	return &cp
}

func (p *Poller) ownProgress(c *models.Challenge) *models.Progress {
	if p.selfID == c.OpponentID {
		return &c.OpponentProgress
	}
	return &c.ChallengerProgress
}

func maxProgress(a, b models.Progress) models.Progress {
	out := b
	if a.QuestionIndex > out.QuestionIndex {
		out.QuestionIndex = a.QuestionIndex
	}
	if a.Score > out.Score {
		out.Score = a.Score
	}
	return out
}
