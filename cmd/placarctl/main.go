// placarctl opera o placar pelo terminal usando o mesmo store compartilhado da API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/platform/clock"
	"github.com/marcelojr/placar-show/internal/platform/config"
	"github.com/marcelojr/placar-show/internal/platform/ids"
	"github.com/marcelojr/placar-show/internal/platform/logger"
	"github.com/marcelojr/placar-show/internal/platform/storage"
)

const Version = "0.1.0"

const usage = `Placar do show de talentos.

Usage:
    placarctl state
    placarctl results [--csv]
    placarctl add-performance <name> [--performer=<performer>] [--image=<url>] [--password=<password>]
    placarctl remove-performance <id> [--password=<password>]
    placarctl activate <id> [--password=<password>]
    placarctl deactivate [--password=<password>]
    placarctl add-judge <name> [--password=<password>]
    placarctl remove-judge <id> [--password=<password>]
    placarctl judges [--password=<password>]
    placarctl max-score <n> [--password=<password>]

Options:
    -h --help                  Show this screen.
    --version                  Show version.
    --csv                      Exporta o ranking em CSV (com BOM).
    --performer=<performer>    Apresentador ou grupo.
    --image=<url>              Imagem da apresentacao; vazio usa a imagem padrao.
    --password=<password>      Senha de admin; se omitida, e pedida no terminal.`

const syncTimeout = 10 * time.Second

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	// Logs de info poluiriam a saida da CLI.
	logger.SetLevelString("warn")

	// No backend em memoria a CLI veria um placar proprio e vazio.
	if cfg.StoreBackend != storage.BackendRedis {
		logger.Fatal("placarctl exige store compartilhado", "backend", cfg.StoreBackend)
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

	waitCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	err = client.WaitReady(waitCtx)
	cancel()
	if err != nil {
		logger.Fatal("placar nao sincronizou a tempo", "err", err)
	}

	c := &cli{
		board:         client,
		out:           os.Stdout,
		adminPassword: cfg.AdminPassword,
		readPassword:  promptPassword,
	}
	if err := c.run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		client.Stop()
		_ = opened.Close()
		os.Exit(1)
	}
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Senha de admin: ")
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
