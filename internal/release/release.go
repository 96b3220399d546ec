// Package release packs the compiled output of a TwinCAT project into
// a versioned archive and runs sanity checks against the binaries, so
// a package that would not run on the target PLC never leaves the
// build machine.
package release

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/DEMCON/twincat-tools/internal/gitinfo"
)

// AddFile copies one extra file into the archive. Dest is the path
// inside the archive; empty keeps the source's own relative path.
type AddFile struct {
	Source string
	Dest   string
}

// CPUCheck pins the CPU configuration of the compiled project.
type CPUCheck struct {
	MaxCpus    int
	NonWinCpus int
}

// VersionVariableCheck demands that a source file in the compiled PLC
// project carries the release version in the named variable.
type VersionVariableCheck struct {
	File     string
	Variable string
}

// HMICheck demands that an HMI page shows the release version in the
// named object.
type HMICheck struct {
	File     string
	ObjectID string
}

// Options configures one release build.
type Options struct {
	// SourceDir is searched recursively for the compilation output.
	SourceDir string
	// Destination receives the archive; "deploy" when empty.
	Destination string
	// Platform selects the _Boot subdirectory; "x64" when empty.
	Platform   string
	IncludeHMI bool
	AddFiles   []AddFile

	CheckCPU *CPUCheck
	// CheckDevices lists the device names that may be enabled; every
	// other device must be disabled. Nil skips the check.
	CheckDevices         []string
	CheckVersionVariable *VersionVariableCheck
	CheckVersionHMI      *HMICheck

	// Version overrides the tag from the repository.
	Version string
	// Dry runs every check but writes no archive.
	Dry bool
}

// Result describes what a release run produced.
type Result struct {
	Version string
	// Archive is the written file, empty in dry runs and failed builds.
	Archive string
	// CheckErrors are failed validations; the archive is only written
	// when this is empty.
	CheckErrors []string
}

// Make builds the release archive. Failed checks land in
// Result.CheckErrors; err covers everything that prevented the run
// itself (missing boot directory, broken zip, existing target).
func Make(opts Options) (Result, error) {
	if opts.Destination == "" {
		opts.Destination = "deploy"
	}
	if opts.Platform == "" {
		opts.Platform = "x64"
	}

	res := Result{Version: opts.Version}
	if res.Version == "" {
		info, err := gitinfo.Collect(opts.SourceDir)
		if err != nil {
			return res, err
		}
		res.Version = info.Tag
		if res.Version == gitinfo.Empty {
			res.Version = "v0.0.0"
		}
	}

	destDir, err := filepath.Abs(opts.Destination)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return res, err
	}

	bootDir, err := findBootDir(opts.SourceDir, opts.Platform)
	if err != nil {
		return res, err
	}
	plcProject, err := globFirst(bootDir, "*.tpzip")
	if err != nil {
		return res, fmt.Errorf("no compiled PLC project under %s: %w", bootDir, err)
	}
	name := strings.ReplaceAll(strings.ToLower(stem(plcProject)), " ", "_")

	hmiDir := ""
	if opts.IncludeHMI {
		html, err := findHMIPage(opts.SourceDir)
		if err != nil {
			return res, err
		}
		hmiDir = filepath.Dir(html)
	}

	archive := filepath.Join(destDir, name+"-"+res.Version+".zip")
	if _, err := os.Stat(archive); err == nil {
		return res, fmt.Errorf("target file %s already exists", archive)
	}

	tempDir, err := os.MkdirTemp(filepath.Dir(destDir), "release-*")
	if err != nil {
		return res, err
	}
	defer os.RemoveAll(tempDir)

	stage := filepath.Join(tempDir, "release")
	if err := copyTree(bootDir, filepath.Join(stage, "PLC")); err != nil {
		return res, err
	}
	if hmiDir != "" {
		if err := copyTree(hmiDir, filepath.Join(stage, "HMI")); err != nil {
			return res, err
		}
	}

	v := &validator{opts: opts, version: res.Version, stage: stage, tempDir: tempDir}
	res.CheckErrors, err = v.run()
	if err != nil {
		return res, err
	}

	if err := addFiles(stage, opts.AddFiles); err != nil {
		return res, err
	}

	if opts.Dry {
		return res, nil
	}
	if len(res.CheckErrors) > 0 {
		return res, nil
	}

	if err := zipDir(stage, archive); err != nil {
		return res, err
	}
	res.Archive = archive
	return res, nil
}

// findBootDir locates _Boot/*(<platform>) under sourceDir.
func findBootDir(sourceDir, platform string) (string, error) {
	suffix := "(" + platform + ")"
	var found string
	err := walkUntil(sourceDir, func(path string, isDir bool) bool {
		if isDir && filepath.Base(filepath.Dir(path)) == "_Boot" &&
			strings.HasSuffix(filepath.Base(path), suffix) {
			found = path
			return true
		}
		return false
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no _Boot directory for platform %s under %s", platform, sourceDir)
	}
	return found, nil
}

// findHMIPage locates bin/*.html under sourceDir.
func findHMIPage(sourceDir string) (string, error) {
	var found string
	err := walkUntil(sourceDir, func(path string, isDir bool) bool {
		if !isDir && filepath.Base(filepath.Dir(path)) == "bin" &&
			strings.HasSuffix(path, ".html") {
			found = path
			return true
		}
		return false
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no compiled HMI page under %s", sourceDir)
	}
	return found, nil
}

func addFiles(stage string, files []AddFile) error {
	for _, f := range files {
		dest := f.Dest
		if dest == "" {
			dest = f.Source
		}
		target := filepath.Join(stage, filepath.FromSlash(dest))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := copyFile(f.Source, target); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	opts    Options
	version string
	stage   string
	tempDir string

	configDir string
}

func (v *validator) run() ([]string, error) {
	if v.opts.CheckCPU == nil && v.opts.CheckDevices == nil &&
		v.opts.CheckVersionVariable == nil && v.opts.CheckVersionHMI == nil {
		return nil, nil
	}

	// The system configuration travels inside CurrentConfig.tszip.
	tszip, err := globFirst(filepath.Join(v.stage, "PLC"), "CurrentConfig.tszip")
	if err != nil {
		return nil, fmt.Errorf("no CurrentConfig.tszip in boot directory: %w", err)
	}
	v.configDir = filepath.Join(v.tempDir, "CurrentConfig")
	if err := unzip(tszip, v.configDir); err != nil {
		return nil, err
	}

	tsproj, err := globFirst(v.configDir, "*.tsproj")
	if err != nil {
		return nil, fmt.Errorf("no .tsproj in system configuration: %w", err)
	}
	data, err := os.ReadFile(tsproj)
	if err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", tsproj, err)
	}

	var errs []string
	cpuErrs, err := v.checkCPU(root)
	if err != nil {
		return nil, err
	}
	errs = append(errs, cpuErrs...)

	devErrs, err := v.checkDevices(root)
	if err != nil {
		return nil, err
	}
	errs = append(errs, devErrs...)

	varErrs, err := v.checkVersionVariable()
	if err != nil {
		return nil, err
	}
	errs = append(errs, varErrs...)

	hmiErrs, err := v.checkVersionHMI()
	if err != nil {
		return nil, err
	}
	errs = append(errs, hmiErrs...)

	return errs, nil
}

func (v *validator) checkCPU(root *xmlquery.Node) ([]string, error) {
	if v.opts.CheckCPU == nil {
		return nil, nil
	}

	settings := xmlquery.FindOne(root, "//TcSmProject/Project/System/Settings")
	if settings == nil {
		return nil, fmt.Errorf("no System/Settings node in project file")
	}

	got := CPUCheck{
		MaxCpus:    attrInt(settings, "MaxCpus"),
		NonWinCpus: attrInt(settings, "NonWinCpus"),
	}
	if got != *v.opts.CheckCPU {
		return []string{fmt.Sprintf(
			"expected cpu configuration [%d %d], but found [%d %d] in project file",
			v.opts.CheckCPU.MaxCpus, v.opts.CheckCPU.NonWinCpus,
			got.MaxCpus, got.NonWinCpus)}, nil
	}
	return nil, nil
}

func (v *validator) checkDevices(root *xmlquery.Node) ([]string, error) {
	if v.opts.CheckDevices == nil {
		return nil, nil
	}

	enabled := make(map[string]bool, len(v.opts.CheckDevices))
	for _, name := range v.opts.CheckDevices {
		enabled[name] = true
	}

	var errs []string
	for _, device := range xmlquery.Find(root, "//TcSmProject/Project/Io/Device") {
		name := ""
		disabled := strings.EqualFold(device.SelectAttr("Disabled"), "true")

		// Devices may live in a separate .xti file referenced by name.
		if file := device.SelectAttr("File"); file != "" {
			xti, err := globFirst(v.configDir, file)
			if err != nil {
				return nil, fmt.Errorf("referenced device file %s: %w", file, err)
			}
			data, err := os.ReadFile(xti)
			if err != nil {
				return nil, err
			}
			extRoot, err := xmlquery.Parse(strings.NewReader(string(data)))
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", xti, err)
			}
			extDevice := xmlquery.FindOne(extRoot, "//TcSmItem/Device")
			if extDevice == nil {
				return nil, fmt.Errorf("no Device node in %s", xti)
			}
			name = strings.TrimSuffix(file, ".xti")
			disabled = strings.EqualFold(extDevice.SelectAttr("Disabled"), "true")
		} else if n := xmlquery.FindOne(device, "Name"); n != nil {
			name = n.InnerText()
		}

		shouldBeDisabled := !enabled[name]
		if shouldBeDisabled != disabled {
			state := "enabled, but is disabled"
			if shouldBeDisabled {
				state = "disabled, but is enabled"
			}
			errs = append(errs, fmt.Sprintf("device %q should be %s", name, state))
		}
	}
	return errs, nil
}

func (v *validator) checkVersionVariable() ([]string, error) {
	if v.opts.CheckVersionVariable == nil {
		return nil, nil
	}
	check := v.opts.CheckVersionVariable

	plcArchive, err := globFirst(filepath.Join(v.stage, "PLC"), "*.tpzip")
	if err != nil {
		return nil, fmt.Errorf("no .tpzip in boot directory: %w", err)
	}
	plcDir := filepath.Join(v.configDir, "plc")
	if err := unzip(plcArchive, plcDir); err != nil {
		return nil, err
	}

	file, err := globFirst(plcDir, check.File)
	if err != nil {
		return nil, fmt.Errorf("version file %s: %w", check.File, err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	pattern, err := regexp.Compile(check.Variable + ".*" + regexp.QuoteMeta(v.version))
	if err != nil {
		return nil, err
	}
	if !pattern.Match(data) {
		return []string{fmt.Sprintf("failed to find version %q in code %s:%s",
			v.version, check.File, check.Variable)}, nil
	}
	return nil, nil
}

func (v *validator) checkVersionHMI() ([]string, error) {
	if v.opts.CheckVersionHMI == nil {
		return nil, nil
	}
	check := v.opts.CheckVersionHMI

	file, err := globFirst(filepath.Join(v.stage, "HMI"), check.File)
	if err != nil {
		return nil, fmt.Errorf("HMI file %s: %w", check.File, err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	pattern, err := regexp.Compile(check.ObjectID + `.*?data-tchmi-text="(.+?)"`)
	if err != nil {
		return nil, err
	}
	m := pattern.FindSubmatch(data)
	if m == nil {
		return []string{fmt.Sprintf("failed to find HMI object %q in %s",
			check.ObjectID, check.File)}, nil
	}
	if string(m[1]) != v.version {
		return []string{fmt.Sprintf("version in HMI %s:%s is %q, not %q",
			check.File, check.ObjectID, m[1], v.version)}, nil
	}
	return nil, nil
}

func attrInt(n *xmlquery.Node, name string) int {
	v, err := strconv.Atoi(n.SelectAttr(name))
	if err != nil {
		return 0
	}
	return v
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
