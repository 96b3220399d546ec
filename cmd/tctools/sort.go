package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEMCON/twincat-tools/internal/diagfmt"
	"github.com/DEMCON/twincat-tools/internal/driver"
)

// defaultSkipNodes are element names whose subtrees TwinCAT rewrites
// wholesale; sorting inside them only produces churn.
var defaultSkipNodes = []string{"Device", "DataType", "DeploymentEvents"}

var sortCmd = &cobra.Command{
	Use:   "sort [flags] <path> [path...]",
	Short: "Sort TwinCAT project XML files",
	Long:  `Sorts attributes and sibling elements of project-level XML files so version control diffs stay small.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSort,
}

func init() {
	sortCmd.Flags().Bool("check", false, "report files that would change, write nothing")
	sortCmd.Flags().Bool("dry", false, "print rewritten files to stdout instead of writing")
	sortCmd.Flags().Int("jobs", 0, "parallel workers (0 = all CPUs)")
	sortCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	sortCmd.Flags().StringSlice("skip-nodes", nil, "element names left untouched (default Device,DataType,DeploymentEvents)")
	sortCmd.Flags().StringSlice("filter", nil, "file extensions picked up in directories (default .tsproj,.xti,.plcproj)")
	sortCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories of directory targets")
}

func runSort(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	dry, err := cmd.Flags().GetBool("dry")
	if err != nil {
		return err
	}
	if check && dry {
		return fmt.Errorf("sort: --dry cannot be used with --check")
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	skipNodes, err := cmd.Flags().GetStringSlice("skip-nodes")
	if err != nil {
		return err
	}
	filterExts, err := cmd.Flags().GetStringSlice("filter")
	if err != nil {
		return err
	}
	recursive, err := cmd.Flags().GetBool("recursive")
	if err != nil {
		return err
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	colorize, err := useColor(cmd)
	if err != nil {
		return err
	}

	manifest, haveManifest, err := loadProjectManifest(".")
	if err != nil {
		return err
	}
	if haveManifest {
		if len(skipNodes) == 0 {
			skipNodes = manifest.Config.Sort.SkipNodes
		}
		if len(filterExts) == 0 {
			filterExts = manifest.Config.Sort.Filter
		}
		if jobs == 0 {
			jobs = manifest.Config.Sort.Jobs
		}
	}
	if len(skipNodes) == 0 {
		skipNodes = defaultSkipNodes
	}

	opts := driver.SortOptions{
		Mode:           driver.ModeWrite,
		Jobs:           jobs,
		Recursive:      recursive,
		SkipNodes:      skipNodes,
		MaxDiagnostics: maxDiagnostics,
	}
	if check {
		opts.Mode = driver.ModeCheck
	}
	if dry {
		opts.Mode = driver.ModeDry
	}
	filter := driver.ProjectFilter()
	if len(filterExts) > 0 {
		filter = driver.NewFilter(filterExts...)
	}
	opts.Filter = filter

	var results []driver.SortResult
	if opts.Mode == driver.ModeWrite && shouldUseTUI(mode) {
		files, err := driver.CollectFiles(cmd.Context(), args, filter, recursive)
		if err != nil {
			return err
		}
		results, err = runSortWithUI(cmd.Context(), "Sorting", files, opts)
		if err != nil {
			return err
		}
	} else {
		results, err = driver.SortPaths(cmd.Context(), args, opts)
		if err != nil {
			return err
		}
	}

	var hasErrors bool
	var hasChanges bool
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			fmt.Fprintf(os.Stderr, "sort: %s: %v\n", res.Path, res.Err)
			continue
		}

		if len(res.Diags) > 0 && res.Files != nil {
			diagfmt.Pretty(os.Stderr, res.Diags, res.Files, diagfmt.PrettyOpts{
				Color: colorize,
				Max:   maxDiagnostics,
			})
		}

		if dry {
			_, _ = os.Stdout.Write(res.Output)
			continue
		}

		if !res.Changed {
			continue
		}
		hasChanges = true
		if quiet {
			continue
		}
		if check {
			fmt.Fprintln(os.Stdout, res.Path)
		} else {
			fmt.Fprintf(os.Stdout, "sorted %s\n", res.Path)
		}
	}

	if hasErrors {
		return fmt.Errorf("sort: failed to process some files")
	}
	if check && hasChanges {
		return fmt.Errorf("sort: sorting changes required")
	}
	return nil
}
