package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kabirmdasraful/wrapdisc/pkg"
	"github.com/kabirmdasraful/wrapdisc/pkg/tools"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external pipeline tools are ready",
	Long: `Probes every tool from the manifest (tools.yml at the project root, merged
over the built-in defaults): the executable has to be on PATH and report a
version that satisfies the manifest's minimum.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, projectRoot, err := bootstrap()
		if err != nil {
			return err
		}

		manifest, err := tools.LoadManifest(filepath.Join(projectRoot, "tools.yml"), toolOverrides(cfg))
		if err != nil {
			return err
		}

		pkg.PrintTask("Checking external tools")
		failed := 0
		for _, result := range tools.Check(cmd.Context(), manifest) {
			if result.Err != nil {
				failed++
				pkg.PrintError(fmt.Sprintf("%s: %v", result.Name, result.Err))
				continue
			}

			pkg.PrintSubtask(fmt.Sprintf("%s %s (%s)", result.Name, result.Version, result.Path))
		}

		if failed > 0 {
			return eris.Errorf("%d of %d tools are missing or outdated", failed, len(manifest.Tools))
		}

		pkg.PrintTask("All tools are ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
