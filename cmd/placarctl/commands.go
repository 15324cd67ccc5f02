package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/docopt/docopt-go"

	"github.com/marcelojr/placar-show/internal/app/export"
	"github.com/marcelojr/placar-show/internal/app/httpapi"
	"github.com/marcelojr/placar-show/internal/app/results"
	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/domain"
)

var ErrWrongPassword = errors.New("senha de admin incorreta")

// Board e o subconjunto do cliente sincronizado que a CLI usa.
type Board interface {
	State() domain.State
	CreatePerformance(ctx context.Context, in syncclient.PerformanceInput) (domain.Performance, error)
	DeletePerformance(ctx context.Context, id string) error
	SetActivePerformance(ctx context.Context, id string) error
	AddJudge(ctx context.Context, in syncclient.JudgeInput) (domain.Judge, error)
	DeleteJudge(ctx context.Context, id string) error
	SetMaxScore(ctx context.Context, maxScore float64) error
}

type cli struct {
	board         Board
	out           io.Writer
	adminPassword string
	// readPassword pede a senha quando --password nao foi informado.
	readPassword func() (string, error)
}

// run despacha o comando ja parseado. Comandos de leitura publica nao pedem senha.
func (c *cli) run(ctx context.Context, opts docopt.Opts) error {
	switch {
	case flag(opts, "state"):
		return c.printState()
	case flag(opts, "results"):
		csv, _ := opts.Bool("--csv")
		return c.printResults(csv)
	}

	if err := c.authenticate(opts); err != nil {
		return err
	}

	switch {
	case flag(opts, "add-performance"):
		name, _ := opts.String("<name>")
		performer, _ := opts.String("--performer")
		image, _ := opts.String("--image")
		p, err := c.board.CreatePerformance(ctx, syncclient.PerformanceInput{Name: name, Performer: performer, ImageURL: image})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "apresentacao %s criada (ordem %d)\n", p.ID, p.Order)
	case flag(opts, "remove-performance"):
		id, _ := opts.String("<id>")
		if err := c.board.DeletePerformance(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "apresentacao %s removida\n", id)
	case flag(opts, "activate"):
		id, _ := opts.String("<id>")
		if err := c.board.SetActivePerformance(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "apresentacao ativa: %s\n", id)
	case flag(opts, "deactivate"):
		if err := c.board.SetActivePerformance(ctx, ""); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "nenhuma apresentacao ativa")
	case flag(opts, "add-judge"):
		name, _ := opts.String("<name>")
		j, err := c.board.AddJudge(ctx, syncclient.JudgeInput{Name: name})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "jurado %s criado, codigo de acesso %s\n", j.ID, j.AccessCode)
	case flag(opts, "remove-judge"):
		id, _ := opts.String("<id>")
		if err := c.board.DeleteJudge(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "jurado %s removido\n", id)
	case flag(opts, "judges"):
		return c.printJudges()
	case flag(opts, "max-score"):
		raw, _ := opts.String("<n>")
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("nota maxima invalida %q: %w", raw, err)
		}
		if err := c.board.SetMaxScore(ctx, n); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "nota maxima: %s\n", strconv.FormatFloat(n, 'f', -1, 64))
	default:
		return errors.New("comando desconhecido")
	}
	return nil
}

func (c *cli) authenticate(opts docopt.Opts) error {
	password, _ := opts.String("--password")
	if password == "" && c.readPassword != nil {
		var err error
		if password, err = c.readPassword(); err != nil {
			return fmt.Errorf("ler senha: %w", err)
		}
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(c.adminPassword)) != 1 {
		return ErrWrongPassword
	}
	return nil
}

func (c *cli) printState() error {
	state := c.board.State()
	active, hasActive := state.ActivePerformance()

	fmt.Fprintf(c.out, "versao %d, nota maxima %s, %d jurados\n",
		state.Version, strconv.FormatFloat(state.Settings.MaxScore, 'f', -1, 64), len(state.Judges))

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tORDEM\tID\tNOME\tAPRESENTADOR")
	for _, p := range state.Performances {
		marker := ""
		if hasActive && p.ID == active.ID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", marker, p.Order, p.ID, p.Name, p.Performer)
	}
	return tw.Flush()
}

func (c *cli) printResults(asCSV bool) error {
	state := c.board.State()
	if asCSV {
		return export.WriteCSV(c.out, results.ComputeState(state))
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tAPRESENTACAO\tMEDIA\tTOTAL\tVOTOS\tCOBERTURA")
	for _, row := range httpapi.Ranking(state) {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%d/%d\t%.0f%%\n",
			row.Rank, row.Performance.Name, row.Average,
			strconv.FormatFloat(row.Total, 'f', -1, 64),
			row.Votes, len(state.Judges), row.Coverage)
	}
	return tw.Flush()
}

func (c *cli) printJudges() error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tCODIGO")
	for _, j := range c.board.State().Judges {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", j.ID, j.Name, j.AccessCode)
	}
	return tw.Flush()
}

func flag(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}
