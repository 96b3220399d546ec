package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEMCON/twincat-tools/internal/diagfmt"
	"github.com/DEMCON/twincat-tools/internal/driver"
	"github.com/DEMCON/twincat-tools/internal/editorcfg"
)

var formatCmd = &cobra.Command{
	Use:   "format [flags] <path> [path...]",
	Short: "Format TwinCAT source files",
	Long:  `Rewrites the code regions of TwinCAT source files per the EditorConfig cascade; the XML around them is left byte for byte.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFormat,
}

func init() {
	formatCmd.Flags().Bool("check", false, "report files that would change, write nothing")
	formatCmd.Flags().Bool("dry", false, "print rewritten files to stdout instead of writing")
	formatCmd.Flags().String("format", "text", "output format (text|json)")
	formatCmd.Flags().Int("jobs", 0, "parallel workers (0 = all CPUs)")
	formatCmd.Flags().Bool("no-cache", false, "ignore and do not update the clean-file cache")
	formatCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	formatCmd.Flags().StringSlice("filter", nil, "file extensions picked up in directories (default .TcPOU,.TcGVL,.TcDUT)")
	formatCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories of directory targets")
}

func runFormat(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("format: --dry cannot be used with --check")
	}

	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
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
		if len(filterExts) == 0 {
			filterExts = manifest.Config.Format.Filter
		}
		if jobs == 0 {
			jobs = manifest.Config.Format.Jobs
		}
	}

	opts := driver.FormatOptions{
		Mode:           driver.ModeWrite,
		Jobs:           jobs,
		Recursive:      recursive,
		Resolve:        editorcfg.Resolve,
		MaxDiagnostics: maxDiagnostics,
	}
	if check {
		opts.Mode = driver.ModeCheck
	}
	if dry {
		opts.Mode = driver.ModeDry
	}
	filter := driver.CodeFilter()
	if len(filterExts) > 0 {
		filter = driver.NewFilter(filterExts...)
	}
	opts.Filter = filter
	if !noCache && !dry {
		cache, err := driver.OpenDiskCache("tctools")
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		opts.Cache = cache
	}

	var results []driver.FormatResult
	if opts.Mode == driver.ModeWrite && outputFormat == "text" && shouldUseTUI(mode) {
		files, err := driver.CollectFiles(cmd.Context(), args, filter, recursive)
		if err != nil {
			return err
		}
		results, err = runFormatWithUI(cmd.Context(), "Formatting", files, opts)
		if err != nil {
			return err
		}
	} else {
		results, err = driver.FormatPaths(cmd.Context(), args, opts)
		if err != nil {
			return err
		}
	}

	var hasErrors bool
	var hasChanges bool

	switch outputFormat {
	case "text":
		renderFormatText(results, check, dry, quiet, colorize, maxDiagnostics, &hasErrors, &hasChanges)
	case "json":
		if err := renderFormatJSON(results, check); err != nil {
			return err
		}
		for _, res := range results {
			hasErrors = hasErrors || res.Err != nil
			hasChanges = hasChanges || res.Changed
		}
	default:
		return fmt.Errorf("format: unsupported output format %q", outputFormat)
	}

	if hasErrors {
		return fmt.Errorf("format: failed to process some files")
	}
	if check && hasChanges {
		return fmt.Errorf("format: formatting changes required")
	}
	return nil
}

func renderFormatText(results []driver.FormatResult, check, dry, quiet, colorize bool, maxDiagnostics int, hasErrors, hasChanges *bool) {
	for _, res := range results {
		if res.Err != nil {
			*hasErrors = true
			fmt.Fprintf(os.Stderr, "format: %s: %v\n", res.Path, res.Err)
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
		*hasChanges = true
		if quiet {
			continue
		}
		if check {
			fmt.Fprintln(os.Stdout, res.Path)
		} else {
			fmt.Fprintf(os.Stdout, "reformatted %s\n", res.Path)
		}
	}
}

func renderFormatJSON(results []driver.FormatResult, check bool) error {
	type jsonResult struct {
		Path        string                   `json:"path"`
		Changed     bool                     `json:"changed"`
		CacheHit    bool                     `json:"cache_hit,omitempty"`
		Error       string                   `json:"error,omitempty"`
		Diagnostics []diagfmt.DiagnosticJSON `json:"diagnostics,omitempty"`
	}
	type jsonOutput struct {
		Check   bool         `json:"check"`
		Results []jsonResult `json:"results"`
	}

	out := jsonOutput{Check: check, Results: make([]jsonResult, 0, len(results))}
	for _, res := range results {
		jr := jsonResult{
			Path:     res.Path,
			Changed:  res.Changed,
			CacheHit: res.CacheHit,
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		if len(res.Diags) > 0 && res.Files != nil {
			jr.Diagnostics = diagfmt.BuildDiagnosticsOutput(res.Diags, res.Files).Diagnostics
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
