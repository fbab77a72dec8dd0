/*
Package monitor runs the polling loop: fetch the latest disclosures, drop the
ones already seen, classify the rest and hand hot ones to the notifier.
*/
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/shanehull/dartalert/internal/dart"
	"github.com/shanehull/dartalert/internal/document"
	"github.com/shanehull/dartalert/internal/filter"
	"github.com/shanehull/dartalert/internal/history"
	"github.com/shanehull/dartalert/internal/notify"
	"github.com/shanehull/dartalert/internal/types"
)

var (
	// ErrPassInProgress is returned when a pass is requested while another
	// one still holds the pass lock.
	ErrPassInProgress = errors.New("a scan pass is already running")
	ErrNotRunning     = errors.New("monitor is not running")
)

// Source is the disclosure feed. *dart.Client implements it.
type Source interface {
	FetchList(ctx context.Context, q dart.ListQuery) ([]types.Disclosure, error)
	FetchDocument(ctx context.Context, receiptNo string) ([]byte, error)
}

// Notifier delivers alerts and notices. *notify.Dispatcher implements it.
type Notifier interface {
	Alert(ctx context.Context, channel string, a notify.Alert) error
	Notice(ctx context.Context, channel string, msg *notify.RenderedMessage) error
}

type Options struct {
	Interval  time.Duration
	PageCount int
	// Window gates live passes. nil disables the gate.
	Window        *Window
	DedupMode     history.Mode
	AttachBody    bool
	BackfillDelay time.Duration
	// Location is used for log timestamps.
	Location *time.Location
	Now      func() time.Time
}

const (
	DefaultInterval  = 3 * time.Second
	DefaultPageCount = dart.DefaultCount
)

// Status is a snapshot of the monitor state.
type Status struct {
	Running    bool      `json:"running"`
	Channel    string    `json:"channel,omitempty"`
	IntervalMs int64     `json:"interval_ms"`
	Window     string    `json:"window"`
	LastPass   time.Time `json:"last_pass,omitzero"`
	Passes     int       `json:"passes"`
	Skipped    int       `json:"skipped"`
	Analyzed   int       `json:"analyzed"`
	Alerts     int       `json:"alerts"`
	Seen       int       `json:"seen"`
}

// PassResult counts what a single pass did.
type PassResult struct {
	Fetched int
	Passed  int
	Gated   bool
}

type Monitor struct {
	source    Source
	notifier  Notifier
	engine    *filter.Engine
	sanitizer *document.Sanitizer
	seen      *history.Cache
	opts      Options

	// passMu is held for the duration of a pass.
	passMu sync.Mutex

	mu       sync.Mutex
	running  bool
	channel  string
	cancel   context.CancelFunc
	done     chan struct{}
	gated    bool
	lastPass time.Time
	passes   int
	skipped  int
	analyzed int
	alerts   int
}

func New(src Source, n Notifier, engine *filter.Engine, sanitizer *document.Sanitizer, seen *history.Cache, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.PageCount <= 0 {
		opts.PageCount = DefaultPageCount
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sanitizer == nil {
		sanitizer = document.New(document.DefaultLimit)
	}
	if seen == nil {
		seen = history.NewCache(history.DefaultCapacity)
	}

	return &Monitor{
		source:    src,
		notifier:  n,
		engine:    engine,
		sanitizer: sanitizer,
		seen:      seen,
		opts:      opts,
	}
}

// Start switches the monitor to ACTIVE, runs one pass immediately and then
// one per interval. Starting a running monitor only retargets the channel.
func (m *Monitor) Start(channel string) {
	m.mu.Lock()
	if m.running {
		if m.channel != channel {
			log.Printf("Monitor already running, switching channel to %q", channel)
			m.channel = channel
		}
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.channel = channel
	m.cancel = cancel
	m.done = make(chan struct{})
	m.gated = false
	done := m.done
	m.mu.Unlock()

	log.Printf("Monitor started (channel %q, every %s, %s)", channel, m.opts.Interval, m.opts.Window)
	if err := m.notifier.Notice(ctx, channel, notify.StartedNotice(m.opts.Window.String(), m.opts.Interval)); err != nil {
		log.Printf("Warning: Failed to announce start: %v", err)
	}

	go m.loop(ctx, done)
}

// Stop switches the monitor to IDLE and waits for the loop to exit. An
// in-flight pass stops at the next record boundary.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	channel := m.channel
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done

	log.Printf("Monitor stopped")
	ctx, release := context.WithTimeout(context.Background(), 10*time.Second)
	defer release()
	if err := m.notifier.Notice(ctx, channel, notify.StoppedNotice()); err != nil {
		log.Printf("Warning: Failed to announce stop: %v", err)
	}
	return nil
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		Running:    m.running,
		Channel:    m.channel,
		IntervalMs: m.opts.Interval.Milliseconds(),
		Window:     m.opts.Window.String(),
		LastPass:   m.lastPass,
		Passes:     m.passes,
		Skipped:    m.skipped,
		Analyzed:   m.analyzed,
		Alerts:     m.alerts,
		Seen:       m.seen.Len(),
	}
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.tick(ctx)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	m.mu.Lock()
	running, channel := m.running, m.channel
	m.mu.Unlock()

	if !running {
		return
	}

	if _, err := m.RunOnce(ctx, channel); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Error during scan pass: %v", err)
	}
}

// RunOnce runs a single live pass for channel: trading-hours gate, latest
// records, live thresholds.
func (m *Monitor) RunOnce(ctx context.Context, channel string) (PassResult, error) {
	if !m.passMu.TryLock() {
		m.mu.Lock()
		m.skipped++
		m.mu.Unlock()
		log.Printf("Warning: previous pass still running, skipping tick")
		return PassResult{}, ErrPassInProgress
	}
	defer m.passMu.Unlock()

	now := m.opts.Now()
	if w := m.opts.Window; w != nil && !w.Open(now) {
		m.mu.Lock()
		first := !m.gated
		m.gated = true
		m.mu.Unlock()
		if first {
			log.Printf("[%s][시스템] 장 운영 시간 외 대기 중... (%s)", m.stamp(now), w)
		}
		return PassResult{Gated: true}, nil
	}
	m.mu.Lock()
	m.gated = false
	m.mu.Unlock()

	return m.pass(ctx, channel, dart.ListQuery{Count: m.opts.PageCount}, m.engine, false)
}

// Backfill runs one pass in test mode: the gate is bypassed, the query
// carries an explicit count and date range, the test ratio threshold applies,
// alerts are spaced by BackfillDelay and a summary is sent at the end.
func (m *Monitor) Backfill(ctx context.Context, channel string, q dart.ListQuery) (notify.Summary, error) {
	if !m.passMu.TryLock() {
		return notify.Summary{}, ErrPassInProgress
	}
	defer m.passMu.Unlock()

	if q.Count <= 0 {
		q.Count = m.opts.PageCount
	}
	log.Printf("Backfill started: count=%d begin=%q end=%q", q.Count, q.BeginDate, q.EndDate)

	res, err := m.pass(ctx, channel, q, m.engine.TestMode(), true)
	summary := notify.Summary{
		Analyzed:  res.Fetched,
		Passed:    res.Passed,
		BeginDate: q.BeginDate,
		EndDate:   q.EndDate,
	}
	if err != nil {
		return summary, err
	}

	log.Printf("Backfill done: analyzed %d, passed %d", summary.Analyzed, summary.Passed)
	if err := m.notifier.Notice(ctx, channel, notify.ReportSummary(summary)); err != nil {
		log.Printf("Warning: Failed to send backfill summary: %v", err)
	}
	return summary, nil
}

// pass must be called with passMu held.
func (m *Monitor) pass(ctx context.Context, channel string, q dart.ListQuery, engine *filter.Engine, test bool) (PassResult, error) {
	var res PassResult

	list, err := m.source.FetchList(ctx, q)
	if err != nil {
		return res, fmt.Errorf("failed to fetch disclosure list: %w", err)
	}

	// The feed is newest first; alerts go out in filing order.
	list = slices.Clone(list)
	slices.Reverse(list)
	res.Fetched = len(list)

	for _, d := range list {
		if err := ctx.Err(); err != nil {
			m.record(res)
			return res, err
		}

		if !m.process(ctx, channel, d, engine, test) {
			continue
		}
		res.Passed++

		if test && m.opts.BackfillDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(m.opts.BackfillDelay):
			}
		}
	}

	m.record(res)
	return res, ctx.Err()
}

func (m *Monitor) record(res PassResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastPass = m.opts.Now()
	m.passes++
	m.analyzed += res.Fetched
	m.alerts += res.Passed
}

// process runs one record through dedup, both filter stages and delivery.
// It reports whether an alert was produced. Failures are logged and never
// stop the pass.
func (m *Monitor) process(ctx context.Context, channel string, d types.Disclosure, engine *filter.Engine, test bool) bool {
	key := history.Key(d, m.opts.DedupMode)
	if m.seen.Contains(key) {
		return false
	}

	v := engine.PreFilter(d.Title)
	if v.Decision != filter.Pass {
		return false
	}

	now := m.opts.Now()
	log.Printf("[%s][%s][%s]", m.stamp(now), d.CorpName, d.Title)

	var doc document.Document
	if v.NeedsBody || m.opts.AttachBody {
		doc = m.fetchBody(ctx, d)
		// Stopped mid-fetch: leave the record unseen for the next run.
		if ctx.Err() != nil {
			return false
		}
	}

	r := engine.Classify(v, d.Title, doc.Text)
	if !r.Hot {
		log.Printf("[%s][%s] dropped: %s", m.stamp(now), d.CorpName, r.Reason)
		return false
	}

	if ctx.Err() != nil {
		return false
	}
	// Committed before delivery: a failed send is not retried.
	m.seen.Add(key)

	alert := notify.Alert{
		Disclosure: d,
		Result:     r,
		Body:       doc.Summary,
		Snippet:    document.Snippet(doc.Text, r.Evidence),
		Detected:   now,
		Test:       test,
	}
	if err := m.notifier.Alert(ctx, channel, alert); err != nil {
		log.Printf("Warning: Delivery failed for %s (%s): %v", d.CorpName, d.ReceiptNo, err)
	}
	return true
}

func (m *Monitor) fetchBody(ctx context.Context, d types.Disclosure) document.Document {
	payload, err := m.source.FetchDocument(ctx, d.ReceiptNo)
	if err != nil {
		log.Printf("Warning: Failed to fetch body for %s (%s): %v", d.CorpName, d.ReceiptNo, err)
		return document.Failed()
	}
	return m.sanitizer.Sanitize(payload)
}

func (m *Monitor) stamp(t time.Time) string {
	return t.In(m.opts.Location).Format("15:04:05")
}
