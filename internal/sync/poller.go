// Package sync runs the background refresh loop that keeps the inbox
// listing current. All fetches funnel through the view-model, so its
// single-flight guard also serializes poller and user-initiated loads.
package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gologme/log"

	"github.com/nhle/mail-dashboard/internal/inbox"
)

// RefreshState represents the current state of the refresh loop.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

// RefreshStatus describes the most recent refresh outcome.
type RefreshStatus struct {
	State       RefreshState
	LastRefresh time.Time
	Error       error
}

// RefreshResultMsg is a tea.Msg sent when a fetch cycle completes. The
// view-model already holds the resulting state; receivers re-read their
// snapshot and use Err only for logging and notices.
type RefreshResultMsg struct {
	Err error
}

// RefreshRequestedMsg is a tea.Msg returned immediately by TriggerNow so
// the UI redraws with the refreshing indicator before the fetch lands.
type RefreshRequestedMsg struct{}

// Refresher is the view-model surface the poller drives.
type Refresher interface {
	FetchInbox(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Poller owns fetch execution: one initial load at startup, periodic
// refreshes at a fixed interval, and manual triggers in between.
type Poller struct {
	vm       Refresher
	logger   *log.Logger
	interval time.Duration

	resultCh  chan RefreshResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	status  RefreshStatus
	running bool
}

// New creates a Poller driving the given view-model. A zero or negative
// interval disables periodic refresh; manual triggers still work.
func New(vm Refresher, interval time.Duration, logger *log.Logger) *Poller {
	return &Poller{
		vm:        vm,
		logger:    logger,
		interval:  interval,
		resultCh:  make(chan RefreshResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the refresh loop. The loop stops when ctx is canceled
// or Stop is called; starting an already running poller does nothing.
// Results are consumed through WaitForNextResult.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop halts the refresh loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// TriggerNow requests an immediate refresh and returns a command that
// reports the request to the UI. The trigger is dropped when one is
// already queued; the pending cycle covers it.
func (p *Poller) TriggerNow() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}

	return func() tea.Msg {
		return RefreshRequestedMsg{}
	}
}

// Status returns the most recent refresh outcome.
func (p *Poller) Status() RefreshStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// run is the poller goroutine. The initial load runs before the first
// tick so the UI is never empty longer than one round trip.
func (p *Poller) run(ctx context.Context) {
	p.cycle(ctx, p.vm.FetchInbox)

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-tick:
			p.cycle(ctx, p.vm.Refresh)
		case <-p.triggerCh:
			p.cycle(ctx, p.vm.Refresh)
		}
	}
}

// cycle runs one fetch through the view-model and reports the outcome.
func (p *Poller) cycle(ctx context.Context, fetch func(context.Context) error) {
	p.setStatus(RefreshRunning, nil)

	err := fetch(ctx)
	if errors.Is(err, inbox.ErrFetchInFlight) {
		// Another fetch is already running; its own result follows.
		// LastRefresh stays untouched since nothing was fetched here.
		p.mu.Lock()
		p.status.State = RefreshIdle
		p.mu.Unlock()
		return
	}

	if err != nil {
		p.logger.Warnf("inbox refresh failed: %v", err)
		p.setStatus(RefreshError, err)
	} else {
		p.logger.Debugln("inbox refresh completed")
		p.setStatus(RefreshIdle, nil)
	}

	p.sendResult(RefreshResultMsg{Err: err})
}

// setStatus records the refresh state under the lock.
func (p *Poller) setStatus(state RefreshState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == RefreshIdle && err == nil {
		p.status.LastRefresh = time.Now()
	}
}

// sendResult sends a RefreshResultMsg without blocking.
func (p *Poller) sendResult(msg RefreshResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after processing a RefreshResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}
