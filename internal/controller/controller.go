package controller

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"storyspark/internal/generation"
	"storyspark/internal/history"
	"storyspark/internal/logger"
	"storyspark/internal/metrics"
	"storyspark/internal/story"
)

var (
	ErrBusy     = errors.New("controller: a generation is already in progress")
	ErrNoConfig = errors.New("controller: nothing to approve")
	// ErrDiscarded is returned by a generation whose result arrived after a
	// reset or shutdown.
	ErrDiscarded = errors.New("controller: generation discarded")
)

const (
	MsgGenerateFailed = "Failed to generate story. Please try again or refine your prompt."
	MsgApproveFailed  = "Failed to transition from proposal to book."
)

// HistoryStore is the part of history.Store the controller needs.
type HistoryStore interface {
	Append(ctx context.Context, it history.Item) error
	Get(ctx context.Context, id string) (history.Item, error)
	Remove(ctx context.Context, id string) bool
}

// Controller owns the transient state of one session. Gateway calls run
// outside the lock; at most one is in flight.
type Controller struct {
	gateway generation.Gateway
	history HistoryStore
	catalog *story.Catalog
	log     *zap.Logger

	mu          sync.Mutex
	loading     bool
	errMsg      string
	current     story.Result
	cfg         *story.Config
	historyOpen bool
	version     uint64
	epoch       uint64
	cancel      context.CancelFunc
	changed     chan struct{}
}

func New(gw generation.Gateway, hist HistoryStore, catalog *story.Catalog, log *zap.Logger) *Controller {
	return &Controller{
		gateway: gw,
		history: hist,
		catalog: catalog,
		log:     logger.OrNop(log),
		changed: make(chan struct{}),
	}
}

// Generate validates cfg and runs the request its mode calls for. Provider
// failures are reported through the snapshot's error, not the return value.
func (c *Controller) Generate(ctx context.Context, cfg story.Config) error {
	if err := cfg.Validate(c.catalog); err != nil {
		return err
	}
	runCtx, epoch, err := c.begin(ctx, func() {
		c.errMsg = ""
		c.current = story.Result{}
		stored := cfg
		c.cfg = &stored
	})
	if err != nil {
		return err
	}

	var res story.Result
	var genErr error
	op := "proposal"
	if cfg.Mode == story.ModeAsk {
		var p story.Proposal
		p, genErr = c.gateway.RequestProposal(runCtx, cfg)
		res = story.ProposalResult(p)
	} else {
		op = "book"
		var b story.Book
		b, genErr = c.gateway.RequestBook(runCtx, cfg)
		res = story.BookResult(b)
	}
	return c.finish(ctx, epoch, op, cfg, res, genErr, func() {
		c.errMsg = MsgGenerateFailed
	})
}

// ApproveProposal turns the stored config into a full book. On failure the
// proposal stays on screen.
func (c *Controller) ApproveProposal(ctx context.Context) error {
	var cfg story.Config
	runCtx, epoch, err := c.begin(ctx, func() {
		c.errMsg = ""
		cfg = *c.cfg
	}, func() error {
		if c.cfg == nil {
			return ErrNoConfig
		}
		return nil
	})
	if err != nil {
		return err
	}
	b, genErr := c.gateway.RequestBook(runCtx, cfg)
	return c.finish(ctx, epoch, "approve", cfg, story.BookResult(b), genErr, func() {
		c.errMsg = MsgApproveFailed
	})
}

// begin checks preconditions, marks the controller loading and returns the
// context the gateway call must use.
func (c *Controller) begin(ctx context.Context, apply func(), checks ...func() error) (context.Context, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return nil, 0, ErrBusy
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return nil, 0, err
		}
	}
	apply()
	c.loading = true
	c.epoch++
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.touchLocked()
	return runCtx, c.epoch, nil
}

// finish publishes the outcome of the call started at epoch unless the
// controller moved on in the meantime.
func (c *Controller) finish(ctx context.Context, epoch uint64, op string, cfg story.Config, res story.Result, genErr error, onFail func()) error {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		metrics.GenerationsTotal.WithLabelValues(op, "discarded").Inc()
		c.log.Info("late generation result discarded", zap.String("op", op))
		return ErrDiscarded
	}
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if genErr != nil {
		onFail()
		c.touchLocked()
		c.mu.Unlock()
		metrics.GenerationsTotal.WithLabelValues(op, "error").Inc()
		c.log.Error("generation failed", zap.String("op", op), zap.String("model", cfg.ModelName), zap.Error(genErr))
		return nil
	}
	c.current = res.Clone()
	c.touchLocked()
	c.mu.Unlock()
	metrics.GenerationsTotal.WithLabelValues(op, "ok").Inc()

	item := history.NewItem(cfg, res)
	if err := c.history.Append(context.WithoutCancel(ctx), item); err != nil {
		c.log.Warn("history append failed", zap.String("id", item.ID), zap.Error(err))
	}
	return nil
}

// LoadFromHistory restores the config and result of a saved item and closes
// the history panel.
func (c *Controller) LoadFromHistory(ctx context.Context, id string) error {
	c.mu.Lock()
	busy := c.loading
	c.mu.Unlock()
	if busy {
		return ErrBusy
	}
	it, err := c.history.Get(ctx, id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	cfg := it.Config
	c.cfg = &cfg
	c.current = it.Result.Clone()
	c.errMsg = ""
	c.historyOpen = false
	c.touchLocked()
	return nil
}

// DeleteFromHistory removes a saved item. What is on screen is left alone.
func (c *Controller) DeleteFromHistory(ctx context.Context, id string) bool {
	return c.history.Remove(ctx, id)
}

// Reset returns to the empty form. An in-flight request is canceled and its
// result dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortLocked()
	c.current = story.Result{}
	c.cfg = nil
	c.errMsg = ""
	c.touchLocked()
}

// Close cancels any in-flight request. The controller stays usable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		c.abortLocked()
		c.touchLocked()
	}
}

func (c *Controller) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.loading {
		c.epoch++
		c.loading = false
	}
}

func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errMsg == "" {
		return
	}
	c.errMsg = ""
	c.touchLocked()
}

func (c *Controller) SetHistoryOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.historyOpen == open {
		return
	}
	c.historyOpen = open
	c.touchLocked()
}

func (c *Controller) OpenHistory()  { c.SetHistoryOpen(true) }
func (c *Controller) CloseHistory() { c.SetHistoryOpen(false) }

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:     c.version,
		View:        viewOf(c.loading, c.current),
		Loading:     c.loading,
		Error:       c.errMsg,
		HistoryOpen: c.historyOpen,
	}
	if c.cfg != nil {
		cfg := *c.cfg
		s.Config = &cfg
	}
	cur := c.current.Clone()
	s.Kind = cur.Kind
	s.Proposal = cur.Proposal
	s.Book = cur.Book
	return s
}

// Subscribe emits the current snapshot, then one after each change, until
// ctx ends. A slow reader only ever sees the latest snapshot.
func (c *Controller) Subscribe(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		for {
			c.mu.Lock()
			snap := c.snapshotLocked()
			ch := c.changed
			c.mu.Unlock()

			pushLatest(out, snap)

			select {
			case <-ctx.Done():
				return
			case <-ch:
			}
		}
	}()
	return out
}

func (c *Controller) touchLocked() {
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
}

func pushLatest(out chan Snapshot, s Snapshot) {
	select {
	case out <- s:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- s:
	default:
	}
}

