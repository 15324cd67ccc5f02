package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placar_store_writes_total",
		Help: "Escritas no store por operacao e resultado",
	}, []string{"op", "status"})

	storeRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placar_store_retries_total",
		Help: "Novas tentativas de escrita no store",
	}, []string{"op"})

	snapshotsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placar_snapshots_delivered_total",
		Help: "Snapshots entregues aos assinantes",
	}, []string{"backend"})

	scoreSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placar_score_submissions_total",
		Help: "Notas enviadas pelos jurados",
	}, []string{"status"})

	draftSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placar_draft_saves_total",
		Help: "Gravacoes de rascunho apos o debounce",
	}, []string{"status"})

	suggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placar_suggestions_total",
		Help: "Pedidos de sugestao de comentario",
	}, []string{"provider", "status"})

	suggestionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "placar_suggestion_duration_seconds",
		Help:    "Tempo de resposta do provedor de sugestoes",
		Buckets: prometheus.DefBuckets,
	})

	orphansRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placar_orphan_scores_removed_total",
		Help: "Notas orfas removidas pelo worker",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placar_http_request_duration_seconds",
		Help:    "Duracao das requisicoes HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	websocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "placar_websocket_clients",
		Help: "Conexoes websocket abertas",
	})
)

func ObserveStoreWrite(op, status string) {
	storeWritesTotal.WithLabelValues(op, status).Inc()
}

func IncStoreRetry(op string) {
	storeRetriesTotal.WithLabelValues(op).Inc()
}

func IncSnapshotDelivered(backend string) {
	snapshotsDeliveredTotal.WithLabelValues(backend).Inc()
}

func ObserveScoreSubmission(status string) {
	scoreSubmissionsTotal.WithLabelValues(status).Inc()
}

func ObserveDraftSave(status string) {
	draftSavesTotal.WithLabelValues(status).Inc()
}

func ObserveSuggestion(provider, status string, seconds float64) {
	suggestionsTotal.WithLabelValues(provider, status).Inc()
	suggestionDuration.Observe(seconds)
}

func AddOrphansRemoved(n int) {
	orphansRemovedTotal.Add(float64(n))
}

func ObserveHTTPRequest(route, method, status string, seconds float64) {
	httpRequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}

func WebsocketConnected() {
	websocketClients.Inc()
}

func WebsocketDisconnected() {
	websocketClients.Dec()
}
