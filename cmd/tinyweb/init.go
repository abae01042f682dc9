package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tinyweb/site"
)

// initCmd writes the default documents into a document root.
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Seed a document root with the default pages",
	Long: `Write index.html, hello.html and 404.html into a document root.

The directory is created if it does not exist. Existing files are kept
unless --force is given. The directory defaults to /var/www.

Example:
  tinyweb init /tmp/www
  tinyweb init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolP("force", "f", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "/var/www"
	if len(args) == 1 {
		dir = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	written, err := site.Install(dir, force)
	if err != nil {
		return fmt.Errorf("failed to seed document root: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(written) == 0 {
		fmt.Fprintf(out, "%s already has every default page (use --force to overwrite)\n", dir)
		return nil
	}
	for _, name := range written {
		fmt.Fprintf(out, "wrote %s\n", name)
	}
	return nil
}
