package worker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mathduel-backend/internal/services"
)

// Pool drains the finalize re-check queue. The progress handler runs the
// convergence check synchronously after every write; the queue is the
// at-least-once backstop for checks the synchronous path never got to
// (crash, timeout, dropped response).
type Pool struct {
	redis            *redis.Client
	challengeService *services.ChallengeService
	workerCount      int
	stopChan         chan struct{}
}

func NewPool(redisClient *redis.Client, challengeService *services.ChallengeService, workerCount int) *Pool {
	return &Pool{
		redis:            redisClient,
		challengeService: challengeService,
		workerCount:      workerCount,
		stopChan:         make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d finalize-check workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Finalize worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with a timeout so shutdown is noticed promptly.
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.FinalizeQueue).Result()
		if err != nil {
			continue // Timeout or transient error, retry
		}
		if len(result) < 2 {
			continue
		}

		challengeID, err := uuid.Parse(result[1])
		if err != nil {
			log.Printf("Finalize worker %d: bad challenge id %q: %v", id, result[1], err)
			continue
		}

		// Finalize is idempotent: a no-op for anything already terminal
		// or not yet convergent.
		if _, err := p.challengeService.Finalize(ctx, challengeID); err != nil {
			log.Printf("Finalize worker %d: check for %s failed: %v", id, challengeID, err)
		}
	}
}
