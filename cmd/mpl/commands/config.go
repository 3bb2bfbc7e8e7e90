package commands

import (
	"fmt"
	"time"

	"github.com/mosaicnetworks/mpl/src/config"
	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/sim"
)

//CLIConfig contains configuration for the run and simulate commands
type CLIConfig struct {
	MPL config.Config `mapstructure:",squash"`

	// Topology is one of line, grid or full.
	Topology string `mapstructure:"topology"`
	Nodes    int    `mapstructure:"nodes"`
	// Width is the row length of a grid topology.
	Width int           `mapstructure:"width"`
	Delay time.Duration `mapstructure:"delay"`
	Loss  float64       `mapstructure:"loss"`

	// Seeds is the number of seed nodes, taken from the start of the
	// topology. Node i originates data as seed i+1.
	Seeds       int           `mapstructure:"seeds"`
	Messages    int           `mapstructure:"messages"`
	Interval    time.Duration `mapstructure:"interval"`
	PayloadSize int           `mapstructure:"payload-size"`

	Duration   time.Duration `mapstructure:"duration"`
	RandomSeed int64         `mapstructure:"random-seed"`
	JoinJitter time.Duration `mapstructure:"join-jitter"`

	// LogDir, when set, receives one log file per level.
	LogDir string `mapstructure:"log-dir"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		MPL:         *config.NewDefaultConfig(),
		Topology:    "line",
		Nodes:       5,
		Width:       3,
		Delay:       10 * time.Millisecond,
		Loss:        0,
		Seeds:       1,
		Messages:    10,
		Interval:    time.Second,
		PayloadSize: 32,
		Duration:    30 * time.Second,
		RandomSeed:  1,
	}
}

// buildTopology generates the topology described by the config.
func (c *CLIConfig) buildTopology() (*sim.Topology, error) {
	switch c.Topology {
	case "line":
		return sim.Line(c.Nodes, c.Delay, c.Loss)
	case "grid":
		if c.Width < 1 || c.Nodes%c.Width != 0 {
			return nil, fmt.Errorf("grid of %d nodes cannot have rows of %d", c.Nodes, c.Width)
		}
		return sim.Grid(c.Width, c.Nodes/c.Width, c.Delay, c.Loss)
	case "full":
		return sim.Full(c.Nodes, c.Delay, c.Loss)
	default:
		return nil, fmt.Errorf("unknown topology %q", c.Topology)
	}
}

func (c *CLIConfig) seeds() (map[int]mpl.SeedID, error) {
	if c.Seeds < 0 || c.Seeds > c.Nodes {
		return nil, fmt.Errorf("cannot have %d seeds among %d nodes", c.Seeds, c.Nodes)
	}
	res := make(map[int]mpl.SeedID, c.Seeds)
	for i := 0; i < c.Seeds; i++ {
		res[i] = mpl.SeedID(i + 1)
	}
	return res, nil
}
