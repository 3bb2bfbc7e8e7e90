package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for MPL
var RootCmd = &cobra.Command{
	Use:              "mpl",
	Short:            "Multicast Protocol for Low-Power and Lossy Networks",
	TraverseChildren: true,
}
