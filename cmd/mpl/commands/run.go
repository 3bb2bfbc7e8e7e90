package commands

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/node"
	"github.com/mosaicnetworks/mpl/src/service"
	"github.com/mosaicnetworks/mpl/src/store"
	"github.com/mosaicnetworks/mpl/src/telemetry"
	"github.com/mosaicnetworks/mpl/src/version"
)

//NewRunCmd returns the command that runs an in-memory cluster in real time
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run an in-memory cluster of MPL nodes",
		PreRunE: loadConfig,
		RunE:    runCluster,
	}
	AddRunFlags(cmd)
	return cmd
}

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	AddNetworkFlags(cmd)
	AddProtocolFlags(cmd)

	// Service
	cmd.Flags().Bool("no-service", _config.MPL.NoService, "Disable the HTTP service")
	cmd.Flags().StringP("service-listen", "s", _config.MPL.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.MPL.Store, "Record deliveries in badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.MPL.DatabaseDir, "Dabatabase directory")
	cmd.Flags().Int("cache-size", _config.MPL.CacheSize, "Number of deliveries in LRU caches")
	cmd.Flags().Int("queue-size", _config.MPL.QueueSize, "Inbound packet queue of each node")
}

type nodeSummary struct {
	Name      string    `json:"name"`
	Stats     mpl.Stats `json:"stats"`
	Delivered int       `json:"delivered"`
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runCluster(cmd *cobra.Command, args []string) error {
	logger := _config.MPL.Logger()

	topology, err := _config.buildTopology()
	if err != nil {
		return err
	}

	seeds, err := _config.seeds()
	if err != nil {
		return err
	}

	s, err := newStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cluster, err := node.NewCluster(&_config.MPL, topology, seeds, s, clockwork.NewRealClock())
	if err != nil {
		return err
	}

	if err := cluster.Start(); err != nil {
		cluster.Shutdown()
		return err
	}

	if !_config.MPL.NoService {
		sources := make([]telemetry.StatsSource, 0, len(cluster.Nodes()))
		for _, n := range cluster.Nodes() {
			sources = append(sources, n)
		}

		telemetry.SetBuildInfo(version.Version)

		srv := service.NewService(_config.MPL.ServiceAddr, sources, logger)
		go srv.Serve()
		defer srv.Shutdown(context.Background())
	}

	//Stop on SIGINT, SIGTERM or when the duration is over
	ctx, cancel := context.WithTimeout(context.Background(), _config.Duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, n := range cluster.Seeds() {
		wg.Add(1)
		go func(n *node.Node) {
			defer wg.Done()
			publish(ctx, n)
		}(n)
	}

	<-ctx.Done()
	wg.Wait()
	cluster.Shutdown()

	summaries := []nodeSummary{}
	for _, n := range cluster.Nodes() {
		deliveries, err := s.Deliveries(n.Name())
		if err != nil {
			return err
		}
		summaries = append(summaries, nodeSummary{
			Name:      n.Name(),
			Stats:     n.GetStats(),
			Delivered: len(deliveries),
		})
	}

	return printJSON(summaries)
}

func publish(ctx context.Context, n *node.Node) {
	ticker := time.NewTicker(_config.Interval)
	defer ticker.Stop()

	for i := 0; i < _config.Messages; i++ {
		if _, err := n.Submit(make([]byte, _config.PayloadSize)); err != nil {
			_config.MPL.Logger().WithError(err).WithField("node", n.Name()).Error("Submit")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newStore() (store.Store, error) {
	if _config.MPL.Store {
		return store.NewBadgerStore(_config.MPL.CacheSize, _config.MPL.DatabaseDir, _config.MPL.Logger())
	}
	return store.NewInmemStore(_config.MPL.CacheSize), nil
}
