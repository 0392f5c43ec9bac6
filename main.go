package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/virtbet/vleague/internal/api"
	"github.com/virtbet/vleague/internal/config"
	dbpkg "github.com/virtbet/vleague/internal/db"
	"github.com/virtbet/vleague/internal/engine"
	"github.com/virtbet/vleague/internal/hub"
	"github.com/virtbet/vleague/internal/leader"
	"github.com/virtbet/vleague/internal/league"
	"github.com/virtbet/vleague/internal/schedule"
	"github.com/virtbet/vleague/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading .env", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	lg := league.Default()
	if cfg.Game.LeagueFile != "" {
		lg, err = league.Load(cfg.Game.LeagueFile)
		if err != nil {
			return err
		}
	}

	d := dbpkg.Open(cfg.DB.Path)
	dbpkg.AutoMigrate(d, &store.GlobalState{}, &store.MatchResult{})
	repo := store.NewRepo(d)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.New()
	repo.SetNotifier(h)
	go h.Run(ctx)

	var elector leader.Elector = leader.Static(true)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		re := leader.NewRedisElector(rdb)
		defer re.Release(context.Background())
		elector = re
	}

	sched := schedule.New(schedule.DefaultEpoch,
		time.Duration(cfg.Game.IntervalMinutes)*time.Minute, nil)
	if loc, err := time.LoadLocation(cfg.Game.Timezone); err == nil {
		sched.SetLocation(loc)
	} else {
		slog.Warn("display timezone not recognized, using UTC", "tz", cfg.Game.Timezone, "error", err)
	}
	if t, err := repo.ServerTime(ctx); err == nil {
		sched.Calibrate(t)
	}

	eng := engine.New(repo, sched, elector, lg, nil)
	go eng.Run(ctx)

	// Background jobs: keep the clock offset calibrated against the store
	// and leave a periodic trace of where the engine is.
	jobs, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = jobs.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			if t, err := repo.ServerTime(ctx); err == nil {
				sched.Calibrate(t)
			} else {
				slog.Warn("clock calibration", "error", err)
			}
		}),
	)
	if err != nil {
		return err
	}
	_, err = jobs.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			s := eng.Snapshot()
			slog.Info("heartbeat", "season", s.SeasonIdx, "week", s.Week,
				"phase", s.Phase, "clients", h.ClientCount(), "offset", sched.Offset())
		}),
	)
	if err != nil {
		return err
	}
	jobs.Start()
	defer func() {
		if err := jobs.Shutdown(); err != nil {
			slog.Error("stopping jobs", "error", err)
		}
	}()

	r := gin.Default()
	tp := strings.Split(cfg.Server.TrustedProxies, ",")
	for i := range tp {
		tp[i] = strings.TrimSpace(tp[i])
	}
	if err := r.SetTrustedProxies(tp); err != nil {
		return err
	}

	api.RegisterRoutes(ctx, r, eng, repo, sched, h, protectWith(cfg.Server.AdminToken))

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down gracefully...")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// protectWith gates admin routes behind a bearer token. An empty token
// leaves admin routes open, which is only sane behind a private network.
func protectWith(token string) gin.HandlerFunc {
	if token == "" {
		return nil
	}
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	}
}
