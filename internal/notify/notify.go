/*
Package notify renders hot disclosures into messages and delivers them to
Telegram, email, Kafka and the console.
*/
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shanehull/dartalert/internal/filter"
	"github.com/shanehull/dartalert/internal/types"
)

// Alert is everything a renderer needs to describe one hot disclosure.
type Alert struct {
	Disclosure types.Disclosure
	Result     filter.Result
	// Body is the sanitized, length-capped document text.
	Body     string
	Snippet  string
	Detected time.Time
	Test     bool
}

func (a Alert) Link() string {
	return a.Disclosure.ViewerURL()
}

func (a Alert) High() bool {
	return a.Result.Severity == filter.SeverityHigh
}

// RenderedMessage is the output of a renderer. Key identifies the disclosure
// for sinks that partition by it; it is empty for notices.
type RenderedMessage struct {
	Key     string
	Subject string
	Text    string
	HTML    string
}

type Renderer interface {
	Render(a Alert) (*RenderedMessage, error)
}

// Sender delivers a rendered message. channel is the chat or destination the
// monitor was started with; senders with a fixed destination ignore it.
type Sender interface {
	Send(ctx context.Context, channel string, msg *RenderedMessage) error
}

// Route pairs a sender with the renderer that produces its format.
type Route struct {
	Name     string
	Renderer Renderer
	Sender   Sender
	// Notices controls whether start/stop notices and backfill summaries
	// are delivered on this route.
	Notices bool
}

// Dispatcher fans a message out to every route. Failures are logged and
// joined; nothing is retried.
type Dispatcher struct {
	routes []Route
}

func NewDispatcher(routes ...Route) *Dispatcher {
	return &Dispatcher{routes: routes}
}

func (d *Dispatcher) Routes() []string {
	names := make([]string, 0, len(d.routes))
	for _, r := range d.routes {
		names = append(names, r.Name)
	}
	return names
}

func (d *Dispatcher) Alert(ctx context.Context, channel string, a Alert) error {
	var errs []error
	for _, r := range d.routes {
		msg, err := r.Renderer.Render(a)
		if err != nil {
			log.Printf("Error rendering %s alert for %s: %v", r.Name, a.Disclosure.ReceiptNo, err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
			continue
		}
		if err := r.Sender.Send(ctx, channel, msg); err != nil {
			log.Printf("Error sending %s alert for %s: %v", r.Name, a.Disclosure.ReceiptNo, err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) Notice(ctx context.Context, channel string, msg *RenderedMessage) error {
	var errs []error
	for _, r := range d.routes {
		if !r.Notices {
			continue
		}
		if err := r.Sender.Send(ctx, channel, msg); err != nil {
			log.Printf("Error sending %s notice: %v", r.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
		}
	}
	return errors.Join(errs...)
}

// StartedNotice announces that live monitoring is running.
func StartedNotice(window string, interval time.Duration) *RenderedMessage {
	detail := fmt.Sprintf("(%s / %s 간격)", window, formatInterval(interval))
	return &RenderedMessage{
		Subject: "DART 실시간 모니터링 가동",
		Text:    "🚀 DART 실시간 모니터링 가동\n" + detail,
		HTML:    "🚀 <b>DART 실시간 모니터링 가동</b>\n" + escape(detail),
	}
}

func StoppedNotice() *RenderedMessage {
	return &RenderedMessage{
		Subject: "모니터링 중지",
		Text:    "🛑 모니터링 중지",
		HTML:    "🛑 <b>모니터링 중지</b>",
	}
}

// Summary is the result of a backfill run.
type Summary struct {
	Analyzed  int
	Passed    int
	BeginDate string
	EndDate   string
}

// ReportSummary renders the closing message of a backfill run.
func ReportSummary(s Summary) *RenderedMessage {
	period := "최근 공시"
	if s.BeginDate != "" || s.EndDate != "" {
		period = fmt.Sprintf("%s ~ %s", s.BeginDate, s.EndDate)
	}

	line := fmt.Sprintf("분석 %d건 / 통과 %d건", s.Analyzed, s.Passed)
	return &RenderedMessage{
		Subject: "DART 테스트 결과",
		Text:    fmt.Sprintf("✅ 테스트 완료 (%s)\n%s", period, line),
		HTML:    fmt.Sprintf("✅ <b>테스트 완료</b> (%s)\n%s", escape(period), escape(line)),
	}
}

func formatInterval(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d초", int(d/time.Second))
	}
	return d.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape covers the three characters Telegram's HTML mode requires escaping.
func escape(s string) string {
	return htmlEscaper.Replace(s)
}
