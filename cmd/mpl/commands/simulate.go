package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/mpl/src/sim"
	"github.com/mosaicnetworks/mpl/src/store"
)

//NewSimulateCmd returns the command that runs a discrete-event simulation
func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Simulate a network of MPL nodes and print a report",
		PreRunE: loadConfig,
		RunE:    runSimulation,
	}
	AddNetworkFlags(cmd)
	AddProtocolFlags(cmd)
	cmd.Flags().Int64("random-seed", _config.RandomSeed, "Seed of every random stream")
	return cmd
}

/*******************************************************************************
* SIMULATE
*******************************************************************************/

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := _config.MPL.Logger()

	topology, err := _config.buildTopology()
	if err != nil {
		return err
	}

	seeds, err := _config.seeds()
	if err != nil {
		return err
	}

	s := store.NewInmemStore(_config.MPL.CacheSize)
	defer s.Close()

	conf := &sim.Config{
		MPL:               _config.MPL.MPL,
		Seeds:             seeds,
		RandomSeed:        _config.RandomSeed,
		LifecycleInterval: _config.MPL.LifecycleInterval,
		JoinJitter:        _config.JoinJitter,
	}

	network, err := sim.NewNetwork(conf, topology, s, logger)
	if err != nil {
		return err
	}

	network.Start()
	for i := 0; i < _config.Seeds; i++ {
		network.SchedulePublish(i, _config.JoinJitter, _config.Interval, _config.Messages, _config.PayloadSize)
	}

	events := network.Run(_config.Duration)

	report, err := network.Report()
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"events":         events,
		"delivery_ratio": report.DeliveryRatio,
		"complete":       report.Complete(),
	}).Info("Simulation finished")

	return printJSON(report)
}
