package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsefeed/internal/ads"
	"pulsefeed/internal/api"
	"pulsefeed/internal/candidates"
	"pulsefeed/internal/carousel"
	"pulsefeed/internal/feed"
	"pulsefeed/internal/ranking"
	"pulsefeed/internal/redisclient"
	"pulsefeed/internal/session"
	"pulsefeed/internal/storage"
	"pulsefeed/worker"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the feed API server and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		dbConn, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer dbConn.Close()
		if err := dbConn.Ping(); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		store := storage.NewPostgresStore(dbConn)
		seenLog := storage.NewRedisStore(rdb)

		gen := &feed.Generator{
			Profiles: store,
			Session: &session.Aggregator{
				Signals:    store,
				Thresholds: cfg.Engagement,
				FatigueAt:  cfg.Ads.FatigueThreshold,
			},
			Candidates: &candidates.Gatherer{
				Source: store,
				Sizes:  cfg.Pools,
				Cold:   cfg.ColdStart,
			},
			Ranker: &ranking.Ranker{
				Affinity: store,
				Weights:  cfg.Weights,
			},
			Auction: &ads.Auction{
				Inventory: store,
				PoolSize:  cfg.Ads.AuctionPool,
				Limit:     cfg.Ads.AuctionLimit,
			},
			Dedup: &feed.Deduplicator{
				Seen:        seenLog,
				Skips:       store,
				SkipDwellMS: cfg.Engagement.DwellSkipMS,
			},
			Mixer: &feed.Mixer{
				Ads: &ads.Injector{Rules: cfg.Ads},
				Carousel: &carousel.Injector{
					Source:    store,
					Cooldowns: seenLog,
					Rules:     cfg.Carousel,
				},
				MaxCreatorRepeat: cfg.Feed.MaxCreatorRepeat,
				MaxLimit:         cfg.Feed.MaxLimit,
			},
			SeenLog:          seenLog,
			ColdStartFollows: cfg.ColdStart.FollowThreshold,
		}

		router := api.NewRouter(gen, cfg.Feed)

		interval, err := time.ParseDuration(cfg.Worker.ViralMarkInterval)
		if err != nil {
			return fmt.Errorf("invalid viral_mark_interval: %w", err)
		}
		marker := &worker.ViralMarker{
			Store:     store,
			Threshold: cfg.Engagement.ViralThreshold,
			Interval:  interval,
		}
		mgr := worker.NewManager(marker)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		srv := &http.Server{Addr: ":" + cfg.App.Port, Handler: router}
		go func() {
			<-ctx.Done()
			shutdownCtx, release := context.WithTimeout(context.Background(), 5*time.Second)
			defer release()
			_ = srv.Shutdown(shutdownCtx)
		}()
		go func() {
			slog.Info("starting feed API server", "port", cfg.App.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("server error", "error", err)
				cancel()
			}
		}()

		slog.Info("starting viral marker", "interval", interval.String())
		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
