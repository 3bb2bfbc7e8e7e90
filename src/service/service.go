package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/telemetry"
)

// Service exposes the stats of a set of nodes over HTTP
type Service struct {
	sync.Mutex

	bindAddress string
	sources     []telemetry.StatsSource
	registry    *prometheus.Registry
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, sources []telemetry.StatsSource, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		sources:     sources,
		registry:    prometheus.NewRegistry(),
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registry.MustRegister(telemetry.NewCollector(sources...))
	service.registerHandlers()
	service.server = &http.Server{Addr: bindAddress, Handler: service.mux}

	return &service
}

// registerHandlers registers the API handlers with the service's own mux, so
// that several services can live in the same process.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering MPL API handlers")
	s.mux.Handle("/stats", telemetry.Instrument("stats", s.makeHandler(s.GetStats)))
	s.mux.Handle("/stats/", telemetry.Instrument("node_stats", s.makeHandler(s.GetNodeStats)))
	s.mux.Handle("/metrics", telemetry.MetricsHandler(s.registry))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the handler serving every endpoint.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call which returns when the
// service is shut down, immediately if Shutdown came first.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving MPL API")

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops Serve, whether it is running yet or not.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// GetStats returns the stats of every node keyed by node name.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]mpl.Stats, len(s.sources))
	for _, src := range s.sources {
		stats[src.Name()] = src.GetStats()
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetNodeStats returns the stats of the node named in the path.
func (s *Service) GetNodeStats(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[len("/stats/"):]

	for _, src := range s.sources {
		if src.Name() == name {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(src.GetStats())
			return
		}
	}

	s.logger.WithField("node", name).Error("Unknown node")

	http.Error(w, "unknown node "+name, http.StatusNotFound)
}
