package cmd

import (
	"fmt"
	"log"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/generate"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trial inputs in the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			trials, err := generate.ListTrials(cfg.Data.Dir)
			if err != nil {
				return err
			}
			fmt.Printf("Receptor: %s\n", cfg.Receptor)
			fmt.Println("\nTrials:")
			for _, t := range trials {
				complexes, err := generate.ReadTrialCSV(t.Path)
				if err != nil {
					log.Printf("warning: %v", err)
					fmt.Printf("  - trial %d (%s) [unreadable]\n", t.Number, t.Path)
					continue
				}
				fmt.Printf("  - trial %d (%s) [%d complexes]\n", t.Number, t.Path, len(complexes))
			}
			return nil
		},
	}
}
