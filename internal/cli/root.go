package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/guiyumin/vgrab/internal/core/config"
	"github.com/guiyumin/vgrab/internal/core/extractor"
	"github.com/guiyumin/vgrab/internal/core/version"
	"github.com/spf13/cobra"
)

var (
	outputDir string
	backend   string
)

var rootCmd = &cobra.Command{
	Use:           "vgrab",
	Short:         "List video formats and download them, from the terminal or over HTTP",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "downloads directory")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "extraction backend (ytdlp, youtube)")

	rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return extractor.List(), cobra.ShellCompDirectiveNoFileComp
	})
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	}
	return err
}

// loadConfig resolves settings with precedence flags > env > file > defaults
func loadConfig() *config.Config {
	config.LoadDotEnv()
	cfg := config.LoadOrDefault()

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if backend != "" {
		cfg.Extractor.Backend = backend
	}
	return cfg
}
