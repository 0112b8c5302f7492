// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Build, package and test native C/C++ libraries from recipes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("profile", "p", "", "Profile file or name below $KILN_HOME/profiles")
	flags.StringArrayP("setting", "s", nil, "Override a setting (key=value)")
	flags.StringArrayP("option", "o", nil, "Override an option ([pkg:]key=value)")
	flags.String("user", "", "Override the user of the package reference")
	flags.String("channel", "", "Override the channel of the package reference")
	flags.String("test-folder", app.DefaultTestFolder, "Folder holding the test recipe")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newCreateCmd())
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newPackageCmd())
	rootCmd.AddCommand(c.newTestCmd())
	rootCmd.AddCommand(c.newImportsCmd())
	rootCmd.AddCommand(c.newExportPkgCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// options reads the shared flags and the optional recipe folder argument.
func options(cmd *cobra.Command, args []string) app.Options {
	flags := cmd.Flags()
	profile, _ := flags.GetString("profile")
	settings, _ := flags.GetStringArray("setting")
	opts, _ := flags.GetStringArray("option")
	user, _ := flags.GetString("user")
	channel, _ := flags.GetString("channel")
	testFolder, _ := flags.GetString("test-folder")

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	return app.Options{
		RecipeDir:  dir,
		Profile:    profile,
		Settings:   settings,
		Options:    opts,
		User:       user,
		Channel:    channel,
		TestFolder: testFolder,
	}
}
