package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-kiosk/core/protocol"
)

type runFlags struct {
	configPath string
	url        string
	noVoice    bool
	logFile    string
	traceFile  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kiosk",
		Short:         "Voice ordering kiosk client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newSchemaCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the terminal kiosk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKiosk(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&flags.url, "url", "", "kiosk backend websocket URL (overrides config)")
	cmd.Flags().BoolVar(&flags.noVoice, "no-voice", false, "disable speech input and output")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "kiosk.log", "file receiving JSON logs")
	cmd.Flags().StringVar(&flags.traceFile, "trace-file", "", "file receiving exported spans")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print JSON schemas of the outbound requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(protocol.RequestSchemas(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schemas: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
