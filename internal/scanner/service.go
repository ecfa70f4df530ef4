package scanner

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BalachandraRaju/finns-sub002/config"
	"github.com/BalachandraRaju/finns-sub002/internal/dedup"
	"github.com/BalachandraRaju/finns-sub002/internal/gateway"
	"github.com/BalachandraRaju/finns-sub002/internal/logger"
	"github.com/BalachandraRaju/finns-sub002/internal/metrics"
	"github.com/BalachandraRaju/finns-sub002/internal/notification"
	redisstore "github.com/BalachandraRaju/finns-sub002/internal/store/redis"
	sqlitestore "github.com/BalachandraRaju/finns-sub002/internal/store/sqlite"
)

// Service wires the full alert engine: stores, notifier, websocket feed,
// metrics, and the scan loop. It owns the lifecycle of everything it
// creates.
type Service struct {
	cfg *config.Config

	redis   *redisstore.Store
	sqlite  *sqlitestore.Store
	hub     *gateway.Hub
	prom    *metrics.Metrics
	health  *metrics.HealthStatus
	server  *metrics.Server
	scanner *Scanner
	slog    *slog.Logger
}

// NewService connects all dependencies from cfg.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	sl := logger.Init("alertd", slog.LevelInfo)

	rds, err := redisstore.NewStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	sqs, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		rds.Close()
		return nil, err
	}

	prom := metrics.New()
	health := metrics.NewHealthStatus()
	hub := gateway.NewHub()
	server := metrics.NewServer(cfg.HTTPAddr, health, hub)

	dd := dedup.New(rds, sqs, sqs, buildNotifier(cfg), hub, prom)

	scanCfg := Config{
		ScanInterval:   cfg.ScanInterval,
		LookbackDays:   cfg.LookbackDays,
		CandleInterval: cfg.CandleInterval,
		BoxPct:         cfg.BoxPct,
		ReversalLen:    cfg.ReversalLen,
		RSIEnabled:     cfg.RSIEnabled,
		RSIPeriod:      cfg.RSIPeriod,
		RSIOverbought:  cfg.RSIOverbought,
		RSIOversold:    cfg.RSIOversold,
	}

	return &Service{
		cfg:     cfg,
		redis:   rds,
		sqlite:  sqs,
		hub:     hub,
		prom:    prom,
		health:  health,
		server:  server,
		scanner: New(scanCfg, sqs, sqs, dd, prom, health, sl),
		slog:    sl,
	}, nil
}

// buildNotifier assembles the delivery chain from configuration. With no
// external channel configured, alerts only go to the log.
func buildNotifier(cfg *config.Config) notification.Notifier {
	var chain notification.Multi
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("[alertd] telegram notifier disabled: %v", err)
		} else {
			chain = append(chain, tg)
		}
	}
	if cfg.WebhookURL != "" {
		chain = append(chain, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if len(chain) == 0 {
		return notification.NewLogNotifier()
	}
	return chain
}

// Run starts all subsystems and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.slog.Info("starting alert engine",
		"scan_interval", s.cfg.ScanInterval.String(),
		"box_pct", s.cfg.BoxPct,
		"reversal", s.cfg.ReversalLen,
		"rsi_enabled", s.cfg.RSIEnabled)

	s.health.StartLivenessChecker(ctx, s.redis, s.sqlite.DB(), 15*time.Second)
	s.server.Start()
	go s.trackClients(ctx)

	err := s.scanner.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.server.Stop(shutdownCtx)
	s.sqlite.Close()
	s.redis.Close()

	if err == context.Canceled || err == context.DeadlineExceeded {
		s.slog.Info("alert engine stopped")
		return nil
	}
	return err
}

// trackClients mirrors the hub's client count into the gauge.
func (s *Service) trackClients(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.prom.WSClients.Set(float64(s.hub.ClientCount()))
		}
	}
}
