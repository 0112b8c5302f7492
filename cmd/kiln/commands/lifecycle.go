package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
)

func printReport(cmd *cobra.Command, report domain.Report) {
	line := fmt.Sprintf("%s:%s test %s", report.Reference, report.PackageID, report.Outcome)
	if report.Reason != "" {
		line += " (" + report.Reason + ")"
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
}

func (c *CLI) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [recipe-folder]",
		Short: "Build, package and test a recipe",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Create(cmd.Context(), options(cmd, args))
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
}

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [recipe-folder]",
		Short: "Configure and build a recipe in the package cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), options(cmd, args))
		},
	}
}

func (c *CLI) newPackageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "package [recipe-folder]",
		Short: "Stage the outputs of a previous build into the package cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := c.app.Package(cmd.Context(), options(cmd, args))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), pkg.Root)
			return nil
		},
	}
}

func (c *CLI) newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [recipe-folder]",
		Short: "Build and run the test recipe against the cached package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Test(cmd.Context(), options(cmd, args))
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
}

func (c *CLI) newImportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports [recipe-folder]",
		Short: "Copy runtime libraries of the test dependencies next to the test program",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := c.app.Imports(cmd.Context(), options(cmd, args))
			if err != nil {
				return err
			}
			for _, path := range imported {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}

func (c *CLI) newExportPkgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-pkg [recipe-folder]",
		Short: "Package prebuilt files without running the native build",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options(cmd, args)
			opts.SourceFolder, _ = cmd.Flags().GetString("source-folder")
			opts.BuildFolder, _ = cmd.Flags().GetString("build-folder")

			pkg, err := c.app.ExportPkg(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), pkg.Root)
			return nil
		},
	}
	cmd.Flags().String("source-folder", "", "Folder holding headers and sources to package")
	cmd.Flags().String("build-folder", "", "Folder holding the prebuilt libraries to package")
	return cmd
}
