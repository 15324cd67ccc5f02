// Worker que varre o placar compartilhado e remove as sobras das remoções em cascata.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/app/worker"
	"github.com/marcelojr/placar-show/internal/platform/clock"
	"github.com/marcelojr/placar-show/internal/platform/config"
	"github.com/marcelojr/placar-show/internal/platform/health"
	"github.com/marcelojr/placar-show/internal/platform/ids"
	"github.com/marcelojr/placar-show/internal/platform/logger"
	"github.com/marcelojr/placar-show/internal/platform/migrations"
	"github.com/marcelojr/placar-show/internal/platform/storage"
	postgresstorage "github.com/marcelojr/placar-show/internal/platform/storage/postgres"
)

const (
	syncTimeout     = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevelString(cfg.LogLevel)

	// Com o store em memoria o worker veria uma arvore vazia e apagaria tudo.
	if cfg.StoreBackend != storage.BackendRedis {
		logger.Fatal("worker exige store compartilhado", "backend", cfg.StoreBackend)
	}

	db, err := postgresstorage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN())
	if err != nil {
		logger.Fatal("falha ao conectar no banco", "driver", cfg.DatabaseDriver, "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		// Mesma migracao condicional da API para evitar divergencia de schema.
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	opened, err := storage.OpenStore(ctx, cfg, logger.L())
	if err != nil {
		logger.Fatal("falha ao abrir o store", "err", err)
	}
	defer opened.Close()

	client := syncclient.New(opened.Store, ids.NewGenerator(), clock.NewSystemClock(), logger.L())
	if err := client.Start(ctx); err != nil {
		logger.Fatal("falha ao assinar o placar", "err", err)
	}
	defer client.Stop()

	// Varrer antes do primeiro snapshot apagaria sessoes e rascunhos validos.
	waitCtx, cancelWait := context.WithTimeout(ctx, syncTimeout)
	err = client.WaitReady(waitCtx)
	cancelWait()
	if err != nil {
		logger.Fatal("placar nao sincronizou a tempo", "err", err)
	}

	sweeper := worker.NewSweeper(opened.Store,
		postgresstorage.NewSessionRepository(db),
		postgresstorage.NewDraftRepository(db),
		logger.L(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("worker iniciado", "intervalo", cfg.SweepInterval())
		err := sweeper.Run(gctx, client, cfg.SweepInterval())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.WorkerMetricsAddress != "" {
		checker := health.NewChecker(sqlDB, opened.Redis, health.WithSynced(client.Synced))
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		mux.HandleFunc("GET /readyz", checker.ReadyHandler())
		mux.HandleFunc("GET /livez", health.LiveHandler())
		server := &http.Server{Addr: cfg.WorkerMetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("worker finalizado com erro", "err", err)
	}
	logger.Info("worker finalizado")
}
