package sync

import (
	"context"
	"errors"
	"io"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gologme/log"

	"github.com/nhle/mail-dashboard/internal/inbox"
)

type fakeRefresher struct {
	mu           gosync.Mutex
	fetchCalls   int
	refreshCalls int
	fetchErr     error
	refreshErr   error
}

func (f *fakeRefresher) FetchInbox(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.fetchErr
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeRefresher) counts() (fetches, refreshes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.refreshCalls
}

func newTestPoller(vm Refresher) *Poller {
	return New(vm, 0, log.New(io.Discard, "", 0))
}

func TestPollerInitialFetch(t *testing.T) {
	fake := &fakeRefresher{}
	p := newTestPoller(fake)
	defer p.Stop()

	p.Start(context.Background())
	msg := p.WaitForNextResult()()

	result, ok := msg.(RefreshResultMsg)
	if !ok {
		t.Fatalf("expected RefreshResultMsg, got %T", msg)
	}
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}

	fetches, refreshes := fake.counts()
	if fetches != 1 || refreshes != 0 {
		t.Errorf("calls = (%d, %d), want initial fetch only", fetches, refreshes)
	}
}

func TestPollerManualTrigger(t *testing.T) {
	fake := &fakeRefresher{}
	p := newTestPoller(fake)
	defer p.Stop()

	p.Start(context.Background())
	_ = p.WaitForNextResult()() // drain the initial result

	if msg := p.TriggerNow()(); msg != (RefreshRequestedMsg{}) {
		t.Fatalf("expected RefreshRequestedMsg, got %v", msg)
	}

	msg := p.WaitForNextResult()()
	if _, ok := msg.(RefreshResultMsg); !ok {
		t.Fatalf("expected RefreshResultMsg, got %T", msg)
	}

	_, refreshes := fake.counts()
	if refreshes != 1 {
		t.Errorf("refresh calls = %d, want 1", refreshes)
	}
}

func TestPollerErrorStatus(t *testing.T) {
	fake := &fakeRefresher{fetchErr: errors.New("backend down")}
	p := newTestPoller(fake)
	defer p.Stop()

	p.Start(context.Background())
	msg := p.WaitForNextResult()()

	result := msg.(RefreshResultMsg)
	if result.Err == nil {
		t.Fatal("expected an error result")
	}
	if got := p.Status().State; got != RefreshError {
		t.Errorf("status = %v, want RefreshError", got)
	}
}

func TestPollerSwallowsInFlightRejections(t *testing.T) {
	fake := &fakeRefresher{refreshErr: inbox.ErrFetchInFlight}
	p := newTestPoller(fake)
	defer p.Stop()

	p.Start(context.Background())
	_ = p.WaitForNextResult()()

	_ = p.TriggerNow()()

	got := make(chan tea.Msg, 1)
	go func() { got <- p.WaitForNextResult()() }()

	select {
	case msg := <-got:
		t.Fatalf("rejected cycle must not emit a result, got %v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPollerStartIsIdempotent(t *testing.T) {
	fake := &fakeRefresher{}
	p := newTestPoller(fake)
	defer p.Stop()

	p.Start(context.Background())
	p.Start(context.Background())
	_ = p.WaitForNextResult()()

	fetches, _ := fake.counts()
	if fetches != 1 {
		t.Errorf("fetch calls = %d, want 1 despite a double Start", fetches)
	}
}
