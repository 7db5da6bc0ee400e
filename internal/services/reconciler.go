package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoteLedger is the part of the store the reconciler needs.
type VoteLedger interface {
	RecentlyVoted(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
	RecountVotes(ctx context.Context, commentID uuid.UUID) (int, error)
}

// Reconciler 异步重算评论的 vote_count，保证缓存计数与投票表一致
type Reconciler struct {
	ledger VoteLedger
	log    *zap.SugaredLogger

	queue   chan uuid.UUID // 待重算的评论 ID 队列
	pending map[uuid.UUID]bool
	mu      sync.Mutex

	BatchSize     int
	FlushInterval time.Duration
	SweepInterval time.Duration
	SweepLimit    int
	now           func() time.Time
}

func NewReconciler(ledger VoteLedger, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		ledger:        ledger,
		log:           log,
		queue:         make(chan uuid.UUID, 1000), // 缓冲队列，防止阻塞
		pending:       make(map[uuid.UUID]bool),
		BatchSize:     50,
		FlushInterval: 500 * time.Millisecond,
		SweepInterval: time.Hour,
		SweepLimit:    5000,
		now:           time.Now,
	}
}

// Schedule 将评论加入重算队列（异步），已在队列中的会被跳过
func (r *Reconciler) Schedule(commentID uuid.UUID) bool {
	r.mu.Lock()
	if r.pending[commentID] {
		r.mu.Unlock()
		return false
	}
	r.pending[commentID] = true
	r.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case r.queue <- commentID:
		return true
	default:
		r.mu.Lock()
		delete(r.pending, commentID)
		r.mu.Unlock()
		r.log.Warnw("reconcile queue full, dropping comment", "comment_id", commentID)
		return false
	}
}

// Run processes the queue in batches and periodically sweeps comments that
// received votes since the previous sweep. It returns when ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	batch := make([]uuid.UUID, 0, r.BatchSize)
	flush := time.NewTicker(r.FlushInterval)
	defer flush.Stop()
	sweep := time.NewTicker(r.SweepInterval)
	defer sweep.Stop()

	lastSweep := r.now()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.queue:
			batch = append(batch, id)
			// 达到批量大小，立即处理
			if len(batch) >= r.BatchSize {
				r.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-flush.C:
			if len(batch) > 0 {
				r.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-sweep.C:
			started := r.now()
			r.Sweep(ctx, lastSweep)
			lastSweep = started
		}
	}
}

// Sweep schedules every comment voted on since the given time.
func (r *Reconciler) Sweep(ctx context.Context, since time.Time) int {
	ids, err := r.ledger.RecentlyVoted(ctx, since, r.SweepLimit)
	if err != nil {
		r.log.Errorw("reconcile sweep failed", "error", err)
		return 0
	}
	scheduled := 0
	for _, id := range ids {
		if r.Schedule(id) {
			scheduled++
		}
	}
	if scheduled > 0 {
		r.log.Infow("reconcile sweep", "since", since, "scheduled", scheduled)
	}
	return scheduled
}

func (r *Reconciler) processBatch(ctx context.Context, ids []uuid.UUID) {
	for _, id := range ids {
		if _, err := r.ledger.RecountVotes(ctx, id); err != nil {
			r.log.Warnw("recount votes failed", "comment_id", id, "error", err)
		}

		// 清除 pending 状态
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}
}
