package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shanehull/dartalert/internal/api"
	"github.com/shanehull/dartalert/internal/config"
	"github.com/shanehull/dartalert/internal/dart"
	"github.com/shanehull/dartalert/internal/document"
	"github.com/shanehull/dartalert/internal/filter"
	"github.com/shanehull/dartalert/internal/history"
	"github.com/shanehull/dartalert/internal/monitor"
	"github.com/shanehull/dartalert/internal/notify"
)

var (
	configPath = flag.String("config", "", "(-f) Path to a YAML config file")
	channel    = flag.String("channel", "", "(-c) Target chat id (default: telegram.chat_id)")
	startNow   = flag.Bool("start", false, "(-s) Start monitoring immediately instead of waiting for /on")
	runOnce    = flag.Bool("once", false, "(-o) Run a single live pass and exit")
	backfill   = flag.Int("backfill", 0, "(-b) Re-scan the latest N filings in test mode and exit")
	beginDate  = flag.String("begin", "", "Backfill start date, YYYYMMDD")
	endDate    = flag.String("end", "", "Backfill end date, YYYYMMDD")
	addr       = flag.String("addr", "", "HTTP control API address (default: server.addr)")
)

func init() {
	flag.StringVar(configPath, "f", "", "(-f) Path to a YAML config file (shorthand)")
	flag.StringVar(channel, "c", "", "(-c) Target chat id (shorthand)")
	flag.BoolVar(startNow, "s", false, "(-s) Start monitoring immediately (shorthand)")
	flag.BoolVar(runOnce, "o", false, "(-o) Run a single live pass and exit (shorthand)")
	flag.IntVar(backfill, "b", 0, "(-b) Re-scan the latest N filings in test mode and exit (shorthand)")

	flag.Usage = func() {
		flagSet := flag.CommandLine
		fmt.Printf("Usage of %s:\n", os.Args[0])

		order := []string{"config", "channel", "start", "once", "backfill", "begin", "end", "addr"}
		for _, name := range order {
			f := flagSet.Lookup(name)
			if f != nil {
				fmt.Printf("  -%s\n", f.Name)
				fmt.Printf("    %s\n", f.Usage)
			}
		}
		fmt.Println("\nCredentials are read from the environment (or .env):")
		fmt.Println("  DART_API_KEY, TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID, SMTP_*, KAFKA_BROKERS, KAFKA_TOPIC")
	}
}

func main() {
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}
	if cfg.DART.APIKey == "" {
		fmt.Println("Error: DART API key is required.")
		fmt.Println("Set DART_API_KEY in the environment or dart.api_key in the config file.")
		os.Exit(1)
	}

	target := *channel
	if target == "" {
		target = cfg.Telegram.ChatID
	}

	dispatcher, closeRoutes, err := buildDispatcher(cfg)
	if err != nil {
		log.Fatalf("Fatal error setting up notifications: %v", err)
	}
	defer closeRoutes()

	client := dart.NewClient(cfg.DART.APIKey,
		dart.WithBaseURL(cfg.DART.BaseURL),
		dart.WithTimeout(cfg.Timeout()),
	)

	mon := monitor.New(
		client,
		dispatcher,
		filter.NewEngine(cfg.Policy()),
		document.New(cfg.DART.BodyLimit),
		history.NewCache(cfg.Monitor.DedupCapacity),
		monitor.Options{
			Interval:      cfg.Interval(),
			PageCount:     cfg.DART.PageCount,
			Window:        cfg.Window(),
			DedupMode:     cfg.DedupMode(),
			AttachBody:    cfg.Monitor.AttachBody,
			BackfillDelay: cfg.BackfillDelay(),
			Location:      cfg.Location(),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *backfill > 0:
		q := dart.ListQuery{Count: *backfill, BeginDate: *beginDate, EndDate: *endDate}
		summary, err := mon.Backfill(ctx, target, q)
		if err != nil {
			fatal(closeRoutes, "Fatal error during backfill: %v", err)
			return
		}
		fmt.Printf("Backfill complete: analyzed %d, passed %d\n", summary.Analyzed, summary.Passed)
		return

	case *runOnce:
		res, err := mon.RunOnce(ctx, target)
		if err != nil {
			fatal(closeRoutes, "Fatal error during scan: %v", err)
			return
		}
		if res.Gated {
			fmt.Printf("Outside trading hours (%s), nothing scanned.\n", cfg.Window())
			return
		}
		fmt.Printf("Scan complete: fetched %d, alerts %d\n", res.Fetched, res.Passed)
		return
	}

	serve(ctx, cfg, mon, dispatcher, target)
}

// exit is swapped in tests.
var exit = os.Exit

// fatal logs, runs cleanup and exits. log.Fatalf would skip deferred closes
// such as the Kafka producer.
func fatal(cleanup func(), format string, args ...any) {
	log.Printf(format, args...)
	cleanup()
	exit(1)
}

func serve(ctx context.Context, cfg *config.Config, mon *monitor.Monitor, dispatcher *notify.Dispatcher, target string) {
	listen := *addr
	if listen == "" {
		listen = cfg.Server.Addr
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           api.NewRouter(mon, target),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Control API listening on %s", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Fatal error serving control API: %v", err)
		}
	}()

	if cfg.TelegramEnabled() && cfg.Telegram.Commands {
		tg := notify.NewTelegramSender(cfg.Telegram.Token, target, cfg.Telegram.APIURL)
		go api.NewCommands(cfg.Telegram.Token, cfg.Telegram.APIURL, mon, tg).Run(ctx)
	}

	if *startNow {
		mon.Start(target)
	} else {
		log.Printf("Monitor idle. Send /on or POST /api/monitor/start to begin (%d routes configured).", len(dispatcher.Routes()))
	}

	<-ctx.Done()
	log.Printf("Shutting down...")

	if err := mon.Stop(); err != nil && !errors.Is(err, monitor.ErrNotRunning) {
		log.Printf("Warning: Failed to stop monitor: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: Failed to shut down control API: %v", err)
	}
}

// buildDispatcher wires one route per configured channel. The console route
// is always present so alerts are visible without any credentials.
func buildDispatcher(cfg *config.Config) (*notify.Dispatcher, func(), error) {
	routes := []notify.Route{{
		Name:     "console",
		Renderer: notify.TextRenderer{},
		Sender:   notify.NewConsoleSender(os.Stdout),
		Notices:  true,
	}}
	closers := []func() error{}

	if cfg.TelegramEnabled() {
		routes = append(routes, notify.Route{
			Name:     "telegram",
			Renderer: notify.NewTelegramRenderer(),
			Sender:   notify.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.APIURL),
			Notices:  true,
		})
	}

	if cfg.EmailEnabled() {
		routes = append(routes, notify.Route{
			Name:     "email",
			Renderer: notify.NewHTMLEmailRenderer(),
			Sender: notify.NewEmailSender(notify.EmailConfig{
				SMTPServer: cfg.Email.SMTPServer,
				SMTPPort:   cfg.Email.SMTPPort,
				SMTPUser:   cfg.Email.SMTPUser,
				SMTPPass:   cfg.Email.SMTPPass,
				FromEmail:  cfg.Email.FromEmail,
				ToEmail:    cfg.Email.ToEmail,
				Enabled:    true,
			}),
			Notices: true,
		})
	}

	if cfg.KafkaEnabled() {
		ks, err := notify.NewKafkaSender(notify.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, ks.Close)
		routes = append(routes, notify.Route{
			Name:     "kafka",
			Renderer: notify.EventRenderer{},
			Sender:   ks,
		})
	}

	for _, r := range routes {
		log.Printf("Notification route enabled: %s", r.Name)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("Warning: Failed to close notification route: %v", err)
			}
		}
	}
	return notify.NewDispatcher(routes...), closeAll, nil
}
