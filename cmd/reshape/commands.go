package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reshape/internal/core"
	"github.com/JonMunkholm/reshape/internal/logging"
	"github.com/JonMunkholm/reshape/internal/reference"
)

// options are the flags shared by every subcommand.
type options struct {
	reference string
	mapping   string
	output    string
	logLevel  string
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "reshape",
		Short:         "Reshape an uploaded table against a reference table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.reference, "reference", "r", "config/base_file_a.csv", "reference CSV file")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "-", "output CSV file, - for stdout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "maximum run time")

	overwrite := &cobra.Command{
		Use:   "overwrite <upload>",
		Short: "Copy the reference and fill 機種 and 検定番号 by row position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, core.ModeOverwrite, args[0])
		},
	}

	conform := &cobra.Command{
		Use:   "conform <upload>",
		Short: "Rename, select and reorder upload columns to the reference header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, core.ModeConform, args[0])
		},
	}
	conform.Flags().StringVarP(&opts.mapping, "mapping", "m", "", "YAML rename mapping (default: built-in)")

	root.AddCommand(overwrite, conform)
	return root
}

func run(cmd *cobra.Command, opts *options, mode core.Mode, input string) error {
	logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, "text")
	slog.SetDefault(logger)

	rename, err := reference.LoadRenameMapping(opts.mapping)
	if err != nil {
		return err
	}
	store, err := reference.Open(opts.reference, rename, logger)
	if err != nil {
		return err
	}
	svc, err := core.NewService(store, core.Options{MaxConcurrent: 1})
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	res, err := svc.Reshape(ctx, core.Request{
		Mode:     mode,
		Filename: filepath.Base(input),
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("%s [%s]", core.ResponseText(err), core.MapError(err).Code)
	}

	var buf bytes.Buffer
	if err := res.WriteCSV(&buf); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), opts.output, buf.Bytes()); err != nil {
		return err
	}

	if mode == core.ModeConform {
		if len(res.Report.Dropped) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "dropped columns: %s\n", strings.Join(res.Report.Dropped, ", "))
		}
		if len(res.Report.Filled) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "empty columns added: %s\n", strings.Join(res.Report.Filled, ", "))
		}
	}
	return nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
