package main

import (
	"fmt"
	"io"
	"os"

	"prefstore/internal/config"
	"prefstore/internal/logging"
	"prefstore/pkg/factory"
	"prefstore/pkg/helper"
	"prefstore/pkg/prefs"

	"github.com/spf13/cobra"
)

// cli holds the flags and the store opened for one invocation.
type cli struct {
	configPath string
	dataDir    string
	name       string
	legacy     string
	logLevel   string

	app *factory.AppContext
	ds  *prefs.DataStore
	h   *helper.Helper
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one invocation. Command output goes to stdout; logs and
// errors go to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer c.close()
	return root.Execute()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "prefctl",
		Short:             "Inspect and edit a preference data store",
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}
	f := root.PersistentFlags()
	f.StringVar(&c.configPath, "config", "", "path to config file")
	f.StringVar(&c.dataDir, "data-dir", "", "data directory (overrides config)")
	f.StringVar(&c.name, "name", "", "data store name (overrides config)")
	f.StringVar(&c.legacy, "legacy", "", "legacy preference file to import on first access (overrides config)")
	f.StringVar(&c.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(
		c.infoCmd(),
		c.dumpCmd(),
		c.keysCmd(),
		c.stringCmd(),
		c.getCmd(),
		c.putCmd(),
		c.containsCmd(),
		c.rmCmd(),
	)
	return root
}

// open loads the config, applies flag overrides and opens the data store.
func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.Store.DataDir = c.dataDir
	}
	if c.name != "" {
		cfg.Store.Name = c.name
	}
	if c.legacy != "" {
		cfg.Store.LegacyMigration = c.legacy
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logging.InitWriter(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	app, ds, err := factory.FromConfig(cfg)
	if err != nil {
		return err
	}
	c.app = app
	c.ds = ds
	c.h = helper.New()
	c.h.Initialize(ds)
	return nil
}

func (c *cli) close() {
	if c.h != nil {
		c.h.Close()
	}
	if c.ds != nil {
		_ = c.ds.Close()
	}
}
