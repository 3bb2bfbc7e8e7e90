package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

func TestBuildTopology(t *testing.T) {
	conf := NewDefaultCLIConfig()

	conf.Topology = "line"
	conf.Nodes = 4
	topo, err := conf.buildTopology()
	require.NoError(t, err)
	require.Equal(t, 4, topo.Size())
	require.Len(t, topo.Neighbours(1), 2)

	conf.Topology = "grid"
	conf.Nodes = 6
	conf.Width = 3
	topo, err = conf.buildTopology()
	require.NoError(t, err)
	require.Equal(t, 6, topo.Size())

	conf.Width = 4
	_, err = conf.buildTopology()
	require.Error(t, err)

	conf.Topology = "full"
	topo, err = conf.buildTopology()
	require.NoError(t, err)
	require.Len(t, topo.Neighbours(0), 5)

	conf.Topology = "ring"
	_, err = conf.buildTopology()
	require.Error(t, err)
}

func TestSeeds(t *testing.T) {
	conf := NewDefaultCLIConfig()
	conf.Nodes = 3

	conf.Seeds = 2
	seeds, err := conf.seeds()
	require.NoError(t, err)
	require.Equal(t, map[int]mpl.SeedID{0: 1, 1: 2}, seeds)

	conf.Seeds = 4
	_, err = conf.seeds()
	require.Error(t, err)
}
