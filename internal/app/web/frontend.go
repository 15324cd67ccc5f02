package web

// Pacote web renderiza o placar publico (SSR) exibido no telao do evento.

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcelojr/placar-show/internal/app/results"
	"github.com/marcelojr/placar-show/internal/domain"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// RefreshSeconds e o intervalo de recarga automatica da pagina do placar.
const RefreshSeconds = 5

// Board e a visao do placar consumida pela pagina.
type Board interface {
	State() domain.State
}

// Frontend renderiza o placar a partir do ultimo estado sincronizado.
type Frontend struct {
	templates *template.Template
	board     Board
}

// New carrega os templates embutidos e registra as dependencias necessarias.
func New(board Board) (*Frontend, error) {
	if board == nil {
		return nil, fmt.Errorf("frontend: placar inexistente")
	}
	tmpl, err := template.ParseFS(templateFS,
		"templates/layout.gohtml",
		"templates/placar.gohtml",
	)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{"placar_body", "layout"} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("frontend: template %s nao encontrado", name)
		}
	}

	return &Frontend{templates: tmpl, board: board}, nil
}

// Register expoe as rotas HTML na mesma mux da API.
func (f *Frontend) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", f.handleRoot)
	mux.HandleFunc("GET /placar", f.handlePlacar)
}

func (f *Frontend) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/placar", http.StatusFound)
}

func (f *Frontend) handlePlacar(w http.ResponseWriter, r *http.Request) {
	f.render(w, "placar_body", makePlacar(f.board.State()))
}

func (f *Frontend) render(w http.ResponseWriter, tmpl string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var content strings.Builder
	if err := f.templates.ExecuteTemplate(&content, tmpl, data); err != nil {
		http.Error(w, "erro ao montar a pagina", http.StatusInternalServerError)
		return
	}

	page := struct {
		Title   string
		Refresh int
		Content template.HTML
	}{
		Title:   "Bảng xếp hạng",
		Refresh: RefreshSeconds,
		Content: template.HTML(content.String()),
	}

	if err := f.templates.ExecuteTemplate(w, "layout", page); err != nil {
		http.Error(w, "erro ao renderizar pagina", http.StatusInternalServerError)
	}
}

type placarPageData struct {
	Active     *activeView
	Rows       []rowView
	JudgeCount int
	MaxScore   string
}

type activeView struct {
	Name      string
	Performer string
	ImageURL  string
	Votes     int
}

type rowView struct {
	Rank      int
	Name      string
	Performer string
	Average   string
	Total     string
	Votes     int
	Coverage  string
	Leader    bool
}

func makePlacar(state domain.State) placarPageData {
	rows := results.ComputeState(state)
	data := placarPageData{
		JudgeCount: len(state.Judges),
		MaxScore:   formatNumber(state.Settings.MaxScore),
		Rows:       make([]rowView, 0, len(rows)),
	}

	for i, row := range rows {
		data.Rows = append(data.Rows, rowView{
			Rank:      i + 1,
			Name:      row.Performance.Name,
			Performer: row.Performance.Performer,
			Average:   formatAverage(row.RoundedAverage()),
			Total:     formatNumber(row.Total),
			Votes:     row.Votes,
			Coverage:  formatPercent(row.Coverage(len(state.Judges))),
			Leader:    i == 0 && row.Votes > 0,
		})
	}

	if p, ok := state.ActivePerformance(); ok {
		active := &activeView{Name: p.Name, Performer: p.Performer, ImageURL: p.ImageURL}
		for _, row := range rows {
			if row.Performance.ID == p.ID {
				active.Votes = row.Votes
			}
		}
		data.Active = active
	}
	return data
}

func formatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}
