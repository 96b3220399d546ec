package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEMCON/twincat-tools/internal/gitinfo"
)

var gitInfoCmd = &cobra.Command{
	Use:   "git-info [flags] <template>",
	Short: "Expand git metadata into a template file",
	Long: `Replaces {{GIT_HASH}}, {{GIT_TAG}} and friends in a template file with
data from the surrounding repository. The output file is the template
path with its last extension stripped unless --output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runGitInfo,
}

func init() {
	gitInfoCmd.Flags().String("output", "", "output file (default: template path minus its last extension)")
	gitInfoCmd.Flags().String("repo", "", "repository to read (default: discovered from the template's directory)")
	gitInfoCmd.Flags().Bool("dry", false, "print the expanded template to stdout instead of writing")
}

func runGitInfo(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	repo, err := cmd.Flags().GetString("repo")
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

	template := args[0]
	out, err := gitinfo.Render(template, repo)
	if err != nil {
		return fmt.Errorf("git-info: %w", err)
	}

	if dry {
		_, err = os.Stdout.Write(out)
		return err
	}

	if output == "" {
		output = gitinfo.OutputPath(template)
	}
	if output == template {
		return fmt.Errorf("git-info: output %s would overwrite the template", template)
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("git-info: %w", err)
	}
	if !quiet {
		fmt.Fprintf(os.Stdout, "wrote %s\n", output)
	}
	return nil
}
