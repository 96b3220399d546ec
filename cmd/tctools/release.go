package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DEMCON/twincat-tools/internal/release"
)

var makeReleaseCmd = &cobra.Command{
	Use:   "make-release [flags] [source-dir]",
	Short: "Package a compiled TwinCAT project into a release archive",
	Long: `Finds the compiled boot directory under the source tree, stages it
together with optional HMI output and extra files, runs the requested
checks against the packaged configuration and writes a versioned zip
archive. Failed checks leave no archive behind.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMakeRelease,
}

func init() {
	makeReleaseCmd.Flags().String("destination", "deploy", "directory receiving the archive")
	makeReleaseCmd.Flags().String("platform", "x64", "TwinCAT platform of the boot directory")
	makeReleaseCmd.Flags().Bool("include-hmi", false, "stage the HMI server output next to the PLC")
	makeReleaseCmd.Flags().StringArray("add-file", nil, "extra file to stage, as source[=dest] (repeatable)")
	makeReleaseCmd.Flags().IntSlice("check-cpu", nil, "expected CPU settings as max,non-windows")
	makeReleaseCmd.Flags().StringSlice("check-devices", nil, "I/O devices that must be enabled; all others must be disabled")
	makeReleaseCmd.Flags().StringSlice("check-version-variable", nil, "declaration that must carry the release version, as file,variable")
	makeReleaseCmd.Flags().StringSlice("check-version-hmi", nil, "HMI object that must show the release version, as file,object-id")
	makeReleaseCmd.Flags().String("release-version", "", "override the version taken from the newest repository tag")
	makeReleaseCmd.Flags().Bool("dry", false, "run every check but write no archive")
}

func runMakeRelease(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	sourceDir := "."
	if len(args) == 1 {
		sourceDir = args[0]
	}

	destination, err := cmd.Flags().GetString("destination")
	if err != nil {
		return err
	}
	platform, err := cmd.Flags().GetString("platform")
	if err != nil {
		return err
	}
	includeHMI, err := cmd.Flags().GetBool("include-hmi")
	if err != nil {
		return err
	}
	addFileSpecs, err := cmd.Flags().GetStringArray("add-file")
	if err != nil {
		return err
	}
	checkCPU, err := cmd.Flags().GetIntSlice("check-cpu")
	if err != nil {
		return err
	}
	checkDevices, err := cmd.Flags().GetStringSlice("check-devices")
	if err != nil {
		return err
	}
	checkVersionVar, err := cmd.Flags().GetStringSlice("check-version-variable")
	if err != nil {
		return err
	}
	checkVersionHMI, err := cmd.Flags().GetStringSlice("check-version-hmi")
	if err != nil {
		return err
	}
	versionOverride, err := cmd.Flags().GetString("release-version")
	if err != nil {
		return err
	}
	dry, err := cmd.Flags().GetBool("dry")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	manifest, haveManifest, err := loadProjectManifest(sourceDir)
	if err != nil {
		return err
	}
	if haveManifest {
		if !cmd.Flags().Changed("destination") && manifest.Config.Release.Destination != "" {
			destination = manifest.Config.Release.Destination
		}
		if !cmd.Flags().Changed("platform") && manifest.Config.Release.Platform != "" {
			platform = manifest.Config.Release.Platform
		}
		if !cmd.Flags().Changed("include-hmi") {
			includeHMI = includeHMI || manifest.Config.Release.IncludeHMI
		}
	}

	opts := release.Options{
		SourceDir:   sourceDir,
		Destination: destination,
		Platform:    platform,
		IncludeHMI:  includeHMI,
		Version:     versionOverride,
		Dry:         dry,
	}

	for _, spec := range addFileSpecs {
		source, dest, found := strings.Cut(spec, "=")
		if !found {
			dest = filepath.Base(source)
		}
		if source == "" || dest == "" {
			return fmt.Errorf("make-release: invalid --add-file %q", spec)
		}
		opts.AddFiles = append(opts.AddFiles, release.AddFile{Source: source, Dest: dest})
	}

	if len(checkCPU) > 0 {
		if len(checkCPU) != 2 {
			return fmt.Errorf("make-release: --check-cpu expects max,non-windows")
		}
		opts.CheckCPU = &release.CPUCheck{MaxCpus: checkCPU[0], NonWinCpus: checkCPU[1]}
	}
	opts.CheckDevices = checkDevices
	if len(checkVersionVar) > 0 {
		if len(checkVersionVar) != 2 {
			return fmt.Errorf("make-release: --check-version-variable expects file,variable")
		}
		opts.CheckVersionVariable = &release.VersionVariableCheck{
			File:     checkVersionVar[0],
			Variable: checkVersionVar[1],
		}
	}
	if len(checkVersionHMI) > 0 {
		if len(checkVersionHMI) != 2 {
			return fmt.Errorf("make-release: --check-version-hmi expects file,object-id")
		}
		opts.CheckVersionHMI = &release.HMICheck{
			File:     checkVersionHMI[0],
			ObjectID: checkVersionHMI[1],
		}
	}

	result, err := release.Make(opts)
	if err != nil {
		return fmt.Errorf("make-release: %w", err)
	}

	for _, msg := range result.CheckErrors {
		fmt.Fprintf(os.Stderr, "make-release: check failed: %s\n", msg)
	}
	if len(result.CheckErrors) > 0 {
		return fmt.Errorf("make-release: %d check(s) failed", len(result.CheckErrors))
	}

	if !quiet {
		if dry {
			fmt.Fprintf(os.Stdout, "dry run for version %s, no archive written\n", result.Version)
		} else {
			fmt.Fprintf(os.Stdout, "wrote %s\n", result.Archive)
		}
	}
	return nil
}
