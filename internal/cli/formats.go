package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/vgrab/internal/core/downloader"
	"github.com/guiyumin/vgrab/internal/core/formats"
	"github.com/spf13/cobra"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Width(44)
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Width(6)
)

var formatsJSON bool

var formatsCmd = &cobra.Command{
	Use:   "formats <url>",
	Short: "List the formats available for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		dl, err := downloader.FromConfig(context.Background(), cfg, nil)
		if err != nil {
			return err
		}

		url := args[0]
		if formatsJSON {
			probe, err := dl.Formats(context.Background(), url)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(probe)
		}

		probe, err := runWithSpinner("Fetching formats", url, func() (*formats.Probe, error) {
			return dl.Formats(context.Background(), url)
		})
		if err != nil {
			return err
		}
		fmt.Print(renderProbe(probe))
		return nil
	},
}

func init() {
	formatsCmd.Flags().BoolVar(&formatsJSON, "json", false, "print the listing as JSON")
	rootCmd.AddCommand(formatsCmd)
}

// renderProbe formats a listing for the terminal
func renderProbe(p *formats.Probe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s %s\n", doneStyle.Render("✓"), infoStyle.Render(p.Title))
	if p.Thumbnail != "" {
		fmt.Fprintf(&b, "  %s\n", hintStyle.Render(p.Thumbnail))
	}

	writeSection(&b, "Presets", p.Presets)
	writeSection(&b, "Formats", p.Formats)

	fmt.Fprintf(&b, "\n  %s\n\n", hintStyle.Render("Use: vgrab download <url> -f <format_id>"))
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []formats.Descriptor) {
	fmt.Fprintf(b, "\n  %s\n", headingStyle.Render(title))
	if len(items) == 0 {
		fmt.Fprintf(b, "    %s\n", hintStyle.Render("none"))
		return
	}
	for _, d := range items {
		fmt.Fprintf(b, "    %s %s %s\n", idStyle.Render(d.FormatID), typeStyle.Render(string(d.Type)), d.Description)
	}
}
