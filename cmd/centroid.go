package cmd

import (
	"fmt"

	"github.com/signalnine/dockscore/internal/structure"
	"github.com/spf13/cobra"
)

var (
	flagAutobox bool
	flagBoxSize float64
)

func newCentroidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "centroid <pdb-file>",
		Short: "Print the centroid of the atoms in a PDB file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := structure.Centroid(args[0])
			if err != nil {
				return err
			}
			if flagAutobox {
				fmt.Println(boxArgs(c, flagBoxSize))
				return nil
			}
			fmt.Println(c)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagAutobox, "autobox", false, "print smina search box arguments centred on the centroid")
	cmd.Flags().Float64Var(&flagBoxSize, "size", 20, "search box edge length in angstroms")
	return cmd
}

func boxArgs(c structure.Vec, size float64) string {
	return fmt.Sprintf("--center_x %.3f --center_y %.3f --center_z %.3f --size_x %.1f --size_y %.1f --size_z %.1f",
		c.X, c.Y, c.Z, size, size, size)
}
