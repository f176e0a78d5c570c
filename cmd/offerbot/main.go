package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/offerbot/config"
	"github.com/alejandrodnm/offerbot/internal/adapters/events"
	"github.com/alejandrodnm/offerbot/internal/adapters/steam"
	"github.com/alejandrodnm/offerbot/internal/application/bot"
	"github.com/alejandrodnm/offerbot/internal/application/checkpoint"
	"github.com/alejandrodnm/offerbot/internal/application/offers"
	"github.com/alejandrodnm/offerbot/internal/application/poller"
	"github.com/alejandrodnm/offerbot/internal/application/session"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	report := flag.Bool("report", false, "print the latest offer ledger rows and exit")
	limit := flag.Int("limit", 50, "rows shown by -report")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	if *report {
		setupLogger(cfg.Log, os.Stdout)
		if err := runReport(cfg, *limit); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	logOut, closeLog, err := openLogFile(cfg.Log.File)
	if err != nil {
		slog.Error("failed to open log file", "err", err, "file", cfg.Log.File)
		os.Exit(1)
	}
	defer closeLog()
	setupLogger(cfg.Log, logOut)

	slog.Info("offerbot starting",
		"config", *configPath,
		"account", cfg.Account.AccountName,
		"interval", cfg.PollInterval(),
		"storage", cfg.Storage.Backend,
		"events", cfg.Events.Backend,
	)

	st, err := openStores(cfg)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer st.Close()

	creds := session.NewCredentials(cfg.Account.AccountName, cfg.Account.Password, st.guard)
	if err := creds.Validate(); err != nil {
		slog.Error("invalid account configuration", "err", err)
		fmt.Fprintln(os.Stderr, "offerbot:", err)
		os.Exit(1)
	}

	client, err := steam.NewClient(cfg.API.CommunityBase, cfg.API.WebAPIBase, cfg.API.APIKey, cfg.Poll.Language)
	if err != nil {
		slog.Error("failed to create steam client", "err", err)
		os.Exit(1)
	}
	confirmer := steam.NewConfirmer(client, cfg.Account.IdentitySecret)

	var publisher ports.EventPublisher
	wmPub, err := events.NewBackend(cfg.Events.Backend, st.redis, slog.Default())
	if err != nil {
		slog.Error("failed to create event publisher", "err", err, "backend", cfg.Events.Backend)
		os.Exit(1)
	}
	if wmPub != nil {
		wp := events.NewWatermillPublisher(wmPub, cfg.Events.TopicPrefix)
		defer wp.Close()
		publisher = wp
	}

	evs := poller.NewEvents()
	p := poller.New(client, poller.Config{Interval: cfg.PollInterval()}, evs)
	manager := session.NewManager(creds, client, p, st.checkpoints)
	engine := offers.New(client, confirmer, st.ledger, publisher, offers.Config{
		SecretKind: steam.IdentitySecretKind,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	codes := make(chan string)
	go bot.ReadCodes(ctx, os.Stdin, codes)

	b := bot.New(bot.Deps{
		Session:   manager,
		Transport: client,
		Poller:    p,
		Events:    evs,
		Offers:    engine,
		Sink:      checkpoint.NewSink(st.checkpoints),
		Codes:     codes,
	})

	if err := b.Run(ctx); err != nil {
		slog.Error("offerbot exited with error", "err", err)
		fmt.Fprintln(os.Stderr, "offerbot:", err)
		os.Exit(1)
	}

	slog.Info("offerbot stopped cleanly")
}

// openLogFile trunca el archivo de log de la sesión. Avisa por stdout antes
// de redirigir, porque a partir de ahí la consola solo sirve para el código 2FA.
func openLogFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	fmt.Printf("Logging to %s (overwritten on every start). Type the two-factor code and press enter.\n", path)
	return f, func() { f.Close() }, nil
}

func setupLogger(cfg config.LogConfig, out io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}
