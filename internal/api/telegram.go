package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shanehull/dartalert/internal/dart"
	"github.com/shanehull/dartalert/internal/monitor"
	"github.com/shanehull/dartalert/internal/notify"
)

// Long-poll duration passed to getUpdates, in seconds.
const updatesTimeout = 30

// Commands listens for bot commands and drives the monitor:
//
//	/on                      start on the chat the command came from
//	/off                     stop
//	/status                  report the monitor state
//	/test [count] [begin] [end]  backfill in test mode (dates YYYYMMDD)
type Commands struct {
	token  string
	apiURL string
	client *http.Client
	ctrl   Controller
	reply  notify.Sender
	offset int64
}

func NewCommands(token, apiURL string, ctrl Controller, reply notify.Sender) *Commands {
	if apiURL == "" {
		apiURL = notify.DefaultTelegramAPI
	}
	return &Commands{
		token:  token,
		apiURL: apiURL,
		client: &http.Client{Timeout: (updatesTimeout + 10) * time.Second},
		ctrl:   ctrl,
		reply:  reply,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []update `json:"result"`
}

// Run polls for updates until ctx is done.
func (c *Commands) Run(ctx context.Context) {
	log.Printf("Listening for Telegram commands")
	for ctx.Err() == nil {
		if err := c.poll(ctx, updatesTimeout); err != nil && ctx.Err() == nil {
			log.Printf("Warning: Failed to fetch Telegram updates: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (c *Commands) poll(ctx context.Context, timeout int) error {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(c.offset, 10))
	q.Set("timeout", strconv.Itoa(timeout))
	q.Set("allowed_updates", `["message"]`)
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.apiURL, c.token, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build getUpdates request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("getUpdates request failed: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close getUpdates response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read getUpdates response: %w", err)
	}
	var ur updatesResponse
	if err := json.Unmarshal(raw, &ur); err != nil {
		return fmt.Errorf("failed to decode getUpdates response (status %d): %w", resp.StatusCode, err)
	}
	if !ur.OK {
		return fmt.Errorf("getUpdates rejected: %s", ur.Description)
	}

	for _, u := range ur.Result {
		if u.UpdateID >= c.offset {
			c.offset = u.UpdateID + 1
		}
		if u.Message == nil {
			continue
		}
		c.handle(ctx, strconv.FormatInt(u.Message.Chat.ID, 10), u.Message.Text)
	}
	return nil
}

func (c *Commands) handle(ctx context.Context, chat, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	// "/on@SomeBot" in group chats
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/on":
		c.ctrl.Start(chat)
	case "/off":
		if err := c.ctrl.Stop(); errors.Is(err, monitor.ErrNotRunning) {
			c.say(ctx, chat, "모니터링이 실행 중이 아닙니다.")
		}
	case "/status":
		st := c.ctrl.Status()
		state := "중지"
		if st.Running {
			state = "가동 중"
		}
		c.say(ctx, chat, fmt.Sprintf("상태: %s\n운영 시간: %s\n분석 %d건 / 알림 %d건", state, st.Window, st.Analyzed, st.Alerts))
	case "/test":
		q, err := parseTestArgs(fields[1:])
		if err != nil {
			c.say(ctx, chat, "사용법: /test [건수] [시작일 YYYYMMDD] [종료일 YYYYMMDD]")
			return
		}
		c.say(ctx, chat, fmt.Sprintf("테스트 분석을 시작합니다 (%d건).", q.Count))
		go func() {
			if _, err := c.ctrl.Backfill(ctx, chat, q); err != nil {
				log.Printf("Warning: Backfill from chat %s failed: %v", chat, err)
				if errors.Is(err, monitor.ErrPassInProgress) {
					c.say(ctx, chat, "다른 분석이 진행 중입니다. 잠시 후 다시 시도해 주세요.")
				}
			}
		}()
	}
}

func (c *Commands) say(ctx context.Context, chat, text string) {
	if err := c.reply.Send(ctx, chat, &notify.RenderedMessage{Subject: "reply", Text: text}); err != nil {
		log.Printf("Warning: Failed to reply to chat %s: %v", chat, err)
	}
}

func parseTestArgs(args []string) (dart.ListQuery, error) {
	q := dart.ListQuery{Count: dart.DefaultCount}
	if len(args) > 3 {
		return q, errors.New("too many arguments")
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > maxBackfillCount {
			return q, fmt.Errorf("invalid count %q", args[0])
		}
		q.Count = n
	}
	for i, a := range args[min(len(args), 1):] {
		if _, err := time.Parse("20060102", a); err != nil {
			return q, fmt.Errorf("invalid date %q", a)
		}
		if i == 0 {
			q.BeginDate = a
		} else {
			q.EndDate = a
		}
	}
	return q, nil
}
