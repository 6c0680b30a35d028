package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/guiyumin/vgrab/internal/core/downloader"
	"github.com/guiyumin/vgrab/internal/core/extractor"
	"github.com/spf13/cobra"
)

var downloadFormat string

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download a video into the downloads directory",
	Long: `Download a video using a format selector.

Examples:
  vgrab download https://youtu.be/xyz
  vgrab download https://youtu.be/xyz -f 'bestaudio[ext=m4a]'
  vgrab download https://youtu.be/xyz -f 137 -o ~/Videos`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		dl, err := downloader.FromConfig(context.Background(), cfg, nil)
		if err != nil {
			return err
		}

		url := args[0]
		result, err := runWithSpinner("Downloading", url, func() (*downloader.Result, error) {
			return dl.Download(context.Background(), url, downloadFormat)
		})
		if err != nil {
			return err
		}

		bold := color.New(color.Bold)
		green := color.New(color.FgGreen)

		green.Println("Download completed!")
		bold.Printf("File: ")
		fmt.Println(result.Path)
		if info, err := os.Stat(result.Path); err == nil {
			bold.Printf("Size: ")
			fmt.Println(downloader.FormatBytes(info.Size()))
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadFormat, "format", "f", extractor.SelectorBest, "format id or selector")
	rootCmd.AddCommand(downloadCmd)
}
