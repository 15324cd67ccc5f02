// Executável principal da API: carrega a configuração, sincroniza o placar e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/marcelojr/placar-show/internal/app/drafts"
	"github.com/marcelojr/placar-show/internal/app/httpapi"
	"github.com/marcelojr/placar-show/internal/app/judging"
	"github.com/marcelojr/placar-show/internal/app/session"
	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/app/web"
	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/clock"
	"github.com/marcelojr/placar-show/internal/platform/config"
	"github.com/marcelojr/placar-show/internal/platform/health"
	"github.com/marcelojr/placar-show/internal/platform/ids"
	"github.com/marcelojr/placar-show/internal/platform/logger"
	"github.com/marcelojr/placar-show/internal/platform/migrations"
	"github.com/marcelojr/placar-show/internal/platform/ratelimit"
	"github.com/marcelojr/placar-show/internal/platform/storage"
	postgresstorage "github.com/marcelojr/placar-show/internal/platform/storage/postgres"
	"github.com/marcelojr/placar-show/internal/platform/suggest"
)

const (
	syncTimeout     = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevelString(cfg.LogLevel)

	// Rascunhos e sessões ficam no banco relacional; o placar fica no store em árvore.
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
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	opened, err := storage.OpenStore(ctx, cfg, logger.L())
	if err != nil {
		logger.Fatal("falha ao abrir o store", "backend", cfg.StoreBackend, "err", err)
	}
	defer opened.Close()

	client := syncclient.New(opened.Store, ids.NewGenerator(), clock.NewSystemClock(), logger.L())
	if err := client.Start(ctx); err != nil {
		logger.Fatal("falha ao assinar o placar", "err", err)
	}
	defer client.Stop()

	waitCtx, cancelWait := context.WithTimeout(ctx, syncTimeout)
	err = client.WaitReady(waitCtx)
	cancelWait()
	if err != nil {
		logger.Fatal("placar nao sincronizou a tempo", "err", err)
	}

	cache := drafts.NewCache(postgresstorage.NewDraftRepository(db),
		drafts.WithWindow(cfg.DraftDebounce()),
		drafts.WithLogger(logger.L()),
	)
	sessions := session.NewService(postgresstorage.NewSessionRepository(db), client, cfg.AdminPassword, logger.L())

	provider, err := suggest.NewProvider(ctx, cfg.SuggestProvider, cfg.SuggestAPIKey, cfg.SuggestModel)
	if err != nil {
		logger.Fatal("falha ao criar provedor de sugestao", "provider", cfg.SuggestProvider, "err", err)
	}
	if provider == nil {
		logger.Warn("sugestao de comentario sem provedor; usando texto padrao", "provider", cfg.SuggestProvider)
	}
	suggester := suggest.NewSuggester(provider,
		suggest.WithPerMinute(cfg.SuggestPerMinute),
		suggest.WithTimeout(cfg.SuggestTimeout()),
		suggest.WithLogger(logger.L()),
	)

	var limiter domain.RateLimiter = ratelimit.NewNoop()
	if cfg.RateLimitEnabled && opened.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(opened.Redis, cfg.RateLimitMaxActions, cfg.RateLimitWindow(), cfg.RateLimitKeyPrefix)
	}

	judgingSvc := judging.NewService(client, cache, suggester, limiter, logger.L())

	mux := http.NewServeMux()
	httpapi.New(client, sessions, judgingSvc, clock.NewSystemClock(), logger.L()).Register(mux)
	frontend, err := web.New(client)
	if err != nil {
		logger.Fatal("erro ao carregar templates", "err", err)
	}
	frontend.Register(mux)

	checker := health.NewChecker(sqlDB, opened.Redis, health.WithSynced(client.Synced))
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.HandleFunc("GET /livez", health.LiveHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// Conexoes websocket sequestradas nao entram no Shutdown; herdam este contexto.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		cache.Close(shutdownCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
