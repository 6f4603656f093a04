// chartserver hosts the chart core: one chart per configured symbol, a
// WebSocket gateway as the render surface, REST ingest for candle data,
// SQLite history persistence, Redis preference storage, and a Prometheus
// metrics/health endpoint.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"chartcorev1/config"
	"chartcorev1/internal/chart"
	"chartcorev1/internal/format"
	"chartcorev1/internal/gateway"
	"chartcorev1/internal/indicator"
	"chartcorev1/internal/logger"
	"chartcorev1/internal/metrics"
	"chartcorev1/internal/model"
	"chartcorev1/internal/prefs"
	"chartcorev1/internal/source"
	"chartcorev1/internal/store/sqlite"
	"chartcorev1/internal/viewport"
)

type server struct {
	cfg     *config.Config
	hub     *gateway.Hub
	history *sqlite.Store
	prefs   *prefs.Store
	metrics *metrics.Metrics
	health  *metrics.HealthStatus
}

func main() {
	logger.Init("chartserver", logger.ParseLevel(os.Getenv("LOG_LEVEL")))
	cfg := config.Load()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	history, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[main] sqlite: %v", err)
	}
	defer history.Close()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[main] WARNING: redis unreachable, preferences disabled: %v", err)
		rdb = nil
	}
	cancel()

	s := &server{
		cfg:     cfg,
		hub:     gateway.NewHub(m),
		history: history,
		prefs:   prefs.NewStore(rdb),
		metrics: m,
		health:  health,
	}

	symbols := cfg.ParseSymbols()
	if len(symbols) == 0 {
		log.Fatal("[main] no symbols configured")
	}
	for _, symbol := range symbols {
		if err := s.startChart(symbol); err != nil {
			log.Fatalf("[main] chart %s: %v", symbol, err)
		}
	}
	s.updateIndicatorGauge()

	s.hub.OnPrefsChanged(func(symbol string) {
		s.persistPrefs(symbol)
		s.updateIndicatorGauge()
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	health.StartLivenessChecker(rootCtx, rdb, history.DB(), 10*time.Second)

	if cfg.PollURL != "" {
		fetch := source.HTTPFetch(nil, cfg.PollURL)
		interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
		for _, symbol := range symbols {
			ch, _ := s.hub.Chart(symbol)
			go source.NewPoller(symbol, fetch, ch, interval).Run(rootCtx)
		}
		log.Printf("[main] polling %s every %s", cfg.PollURL, interval)
	}

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWS)
	mux.HandleFunc("/api/candles", s.handleCandles)
	mux.HandleFunc("/api/candle", s.handleCandle)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/symbols", s.handleSymbols)

	apiSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("[main] api listening on %s (symbols: %v)", cfg.ListenAddr, symbols)
		if err := apiSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[main] api server: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("[main] shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	apiSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	for _, symbol := range s.hub.Symbols() {
		if ch, ok := s.hub.Chart(symbol); ok {
			ch.Close()
		}
	}
	if rdb != nil {
		rdb.Close()
	}
	log.Println("[main] shutdown complete")
}

// startChart builds one chart from persisted preferences, wires its metric
// hooks, registers it with the gateway, and kicks off the async history
// reload guarded by a load token.
func (s *server) startChart(symbol string) error {
	loadCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	p := s.prefs.Load(loadCtx, symbol)
	cancel()

	chartType, err := chart.ParseChartType(p.ChartType)
	if err != nil {
		chartType, _ = chart.ParseChartType(s.cfg.ChartType)
	}

	kinds := parseKinds(p.Indicators)
	if len(kinds) == 0 {
		kinds = parseKinds(s.cfg.ParseIndicators())
	}

	ch, err := chart.New(s.hub.Surface(symbol), chart.Config{
		ChartType: chartType,
		PriceFormat: format.Spec{
			Mode:      format.ParseMode(s.cfg.PriceFormat),
			Precision: s.cfg.PricePrecision,
		},
		Indicators:  kinds,
		BarSpacing:  s.cfg.BarSpacing,
		RightOffset: s.cfg.RightOffset,
		Decay:       time.Duration(s.cfg.DecaySeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	ch.OnRecompute(func(d time.Duration, indicators int) {
		s.metrics.RecomputeDur.Observe(d.Seconds())
	})
	ch.OnViewportTransition(func(mode viewport.Mode) {
		s.metrics.ViewportTransitions.WithLabelValues(mode.String()).Inc()
	})
	ch.SetTheme(p.Theme)

	s.hub.Register(symbol, ch)

	// Async history reload. The token discards this load if fresher data
	// arrives over REST before SQLite answers.
	token := ch.BeginLoad()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		raw, err := s.history.ReadHistory(ctx, symbol, s.cfg.HistoryLimit)
		if err != nil {
			log.Printf("[main] WARNING: history reload for %s failed: %v", symbol, err)
			return
		}
		if len(raw) == 0 {
			return
		}
		if err := ch.SetDataToken(token, raw); err == nil {
			log.Printf("[main] %s: restored %d candles from history", symbol, len(raw))
		}
	}()

	log.Printf("[main] chart %s ready (type=%s indicators=%v)", symbol, chartType, kinds)
	return nil
}

func parseKinds(names []string) []indicator.Kind {
	var out []indicator.Kind
	for _, name := range names {
		kind, err := indicator.ParseKind(name)
		if err != nil {
			log.Printf("[main] WARNING: skipping indicator %q: %v", name, err)
			continue
		}
		out = append(out, kind)
	}
	return out
}

// persistPrefs snapshots a chart's current theme/type/indicators into Redis.
func (s *server) persistPrefs(symbol string) {
	ch, ok := s.hub.Chart(symbol)
	if !ok {
		return
	}
	kinds := ch.ActiveIndicators()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	s.prefs.Save(symbol, prefs.Preferences{
		Theme:      ch.Theme().Name,
		ChartType:  ch.ChartKind().String(),
		Indicators: names,
	})
}

func (s *server) updateIndicatorGauge() {
	total := 0
	for _, symbol := range s.hub.Symbols() {
		if ch, ok := s.hub.Chart(symbol); ok {
			total += len(ch.ActiveIndicators())
		}
	}
	s.metrics.IndicatorsActive.Set(float64(total))
}

// handleCandles serves GET (current series) and POST (full history replace)
// for one symbol.
func (s *server) handleCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	ch, ok := s.hub.Chart(symbol)
	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, ch.Candles())

	case http.MethodPost:
		var raw []model.RawCandle
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		if err := ch.SetData(raw); err != nil {
			s.metrics.RejectedInput.Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.metrics.SetDataTotal.Inc()
		s.health.SetLastDataAt(time.Now())

		// Persist asynchronously; the in-memory store already holds the
		// normalized series.
		candles := ch.Candles()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.history.ReplaceHistory(ctx, symbol, candles); err != nil {
				log.Printf("[main] WARNING: persist history for %s: %v", symbol, err)
			}
		}()
		w.WriteHeader(http.StatusAccepted)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCandle ingests one live candle (POST).
func (s *server) handleCandle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	ch, ok := s.hub.Chart(symbol)
	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)
		return
	}

	var raw model.RawCandle
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if err := ch.UpdateData(raw); err != nil {
		s.metrics.RejectedInput.Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.metrics.UpdatesTotal.Inc()
	s.health.SetLastDataAt(time.Now())

	if last, ok := ch.Last(); ok {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.history.UpsertCandle(ctx, symbol, last); err != nil {
				log.Printf("[main] WARNING: persist candle for %s: %v", symbol, err)
			}
		}()
	}
	w.WriteHeader(http.StatusAccepted)
}

// handlePositions replaces the position markers for one symbol (POST).
func (s *server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	ch, ok := s.hub.Chart(symbol)
	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)
		return
	}

	var positions []model.Position
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	ch.SetPositions(positions)
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.hub.Symbols())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
