package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kabirmdasraful/wrapdisc/pkg"
	"github.com/kabirmdasraful/wrapdisc/pkg/tools"
)

var fetchToolsCmd = &cobra.Command{
	Use:   "fetch-tools",
	Short: "Download the tools declared in the manifest",
	Long: `Downloads and unpacks every manifest tool that declares an archive URL.
Archives are verified against their checksum and land in .devtask/tools/
unless the manifest names another destination. Tools that are already
up to date are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, projectRoot, err := bootstrap()
		if err != nil {
			return err
		}

		manifest, err := tools.LoadManifest(filepath.Join(projectRoot, "tools.yml"), toolOverrides(cfg))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pkg.PrintTask("Downloading tools")
		if err := tools.Fetch(ctx, projectRoot, manifest); err != nil {
			return err
		}

		pkg.PrintTask("Done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchToolsCmd)
}
