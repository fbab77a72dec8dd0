package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shanehull/dartalert/internal/dart"
	"github.com/shanehull/dartalert/internal/notify"
)

type replies struct {
	mu   sync.Mutex
	sent []string
}

func (r *replies) Send(_ context.Context, channel string, msg *notify.RenderedMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, channel+": "+msg.Text)
	return nil
}

func (r *replies) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func TestCommands_Poll(t *testing.T) {
	var gotOffset string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getUpdates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotOffset = r.URL.Query().Get("offset")
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":41,"message":{"text":"/on@dartalert_bot","chat":{"id":-100}}},
			{"update_id":42,"message":{"text":"/status","chat":{"id":-100}}},
			{"update_id":43}
		]}`))
	}))
	defer server.Close()

	ctrl := &fakeController{}
	rep := &replies{}
	c := NewCommands("TOKEN", server.URL, ctrl, rep)

	if err := c.poll(context.Background(), 0); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if gotOffset != "0" || c.offset != 44 {
		t.Errorf("offset sent %s, next %d", gotOffset, c.offset)
	}
	if !ctrl.running || ctrl.channel != "-100" {
		t.Errorf("controller = %+v, want started on -100", ctrl)
	}

	sent := rep.all()
	if len(sent) != 1 || !strings.HasPrefix(sent[0], "-100: 상태: 가동 중") {
		t.Errorf("replies = %q", sent)
	}
}

func TestCommands_PollRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	c := NewCommands("TOKEN", server.URL, &fakeController{}, &replies{})
	err := c.poll(context.Background(), 0)
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("err = %v", err)
	}
}

func TestCommands_Handle(t *testing.T) {
	ctrl := &fakeController{backfilled: make(chan dart.ListQuery, 1)}
	rep := &replies{}
	c := NewCommands("TOKEN", "", ctrl, rep)
	ctx := context.Background()

	c.handle(ctx, "7", "/off")
	if sent := rep.all(); len(sent) != 1 || !strings.Contains(sent[0], "실행 중이 아닙니다") {
		t.Errorf("off while idle replies = %q", sent)
	}

	c.handle(ctx, "7", "/test 30 20251001 20251016")
	select {
	case q := <-ctrl.backfilled:
		want := dart.ListQuery{Count: 30, BeginDate: "20251001", EndDate: "20251016"}
		if q != want {
			t.Errorf("query = %+v, want %+v", q, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backfill not started")
	}

	c.handle(ctx, "7", "/test many")
	sent := rep.all()
	if !strings.Contains(sent[len(sent)-1], "사용법") {
		t.Errorf("bad /test replies = %q", sent)
	}

	c.handle(ctx, "7", "hello")
	if len(rep.all()) != len(sent) {
		t.Error("plain text produced a reply")
	}
}

func TestParseTestArgs(t *testing.T) {
	tests := []struct {
		args    string
		want    dart.ListQuery
		wantErr bool
	}{
		{"", dart.ListQuery{Count: dart.DefaultCount}, false},
		{"50", dart.ListQuery{Count: 50}, false},
		{"5 20251001", dart.ListQuery{Count: 5, BeginDate: "20251001"}, false},
		{"0", dart.ListQuery{}, true},
		{"5 2025-10-01", dart.ListQuery{}, true},
		{"5 20251001 20251002 x", dart.ListQuery{}, true},
	}

	for _, tt := range tests {
		got, err := parseTestArgs(strings.Fields(tt.args))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTestArgs(%q) err = %v", tt.args, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseTestArgs(%q) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}
