package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dockscore",
		Short:        "Generate DiffDock poses and rescore them with smina",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "dockscore.yaml", "config file path")
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newCentroidCmd())
	return root
}
