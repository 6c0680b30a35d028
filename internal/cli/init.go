package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/guiyumin/vgrab/internal/core/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create vgrab config file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		if initForce {
			if err := config.Save(config.DefaultConfig()); err != nil {
				return err
			}
		} else if err := config.Init(); err != nil {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}

		color.Green("Saved %s", config.SavePath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
