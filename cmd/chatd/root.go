package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatd/internal/version"
)

// newRootCmd builds the command tree. Running chatd without a subcommand
// serves, so both `chatd` and `chatd serve` accept the serve flags.
func newRootCmd() *cobra.Command {
	opts := &serveOptions{}
	root := &cobra.Command{
		Use:           "chatd",
		Short:         "Chat relay in front of a local Ollama backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	bindServeFlags(root, opts)

	serve := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP server",
		Example: "  chatd serve --port 8000\n  OLLAMA_MODEL=llama3 chatd serve --config chatd.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	bindServeFlags(serve, opts)

	root.AddCommand(serve, newVersionCmd())
	return root
}

func bindServeFlags(cmd *cobra.Command, opts *serveOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Config file (.yaml/.yml/.json/.toml); defaults to CHATD_CONFIG")
	f.StringVar(&opts.host, "host", "", "Listen host (overrides API_HOST)")
	f.IntVar(&opts.port, "port", 0, "Listen port (overrides API_PORT)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides API_LOG_LEVEL)")
	f.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment; missing files are ignored")
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			if asJSON {
				s, err := info.ToJSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, s)
				return err
			}
			_, err := fmt.Fprintln(out, info.Text())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
