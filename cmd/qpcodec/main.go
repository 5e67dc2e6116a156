package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/natefinch/lumberjack"
	"github.com/spf13/cobra"

	"github.com/mnightingale/quotedprintable"
	"github.com/mnightingale/quotedprintable/internal/batch"
	"github.com/mnightingale/quotedprintable/internal/config"
)

var Version = "dev"

var (
	configFile string
	workers    int
	outputDir  string
	text       string
)

type mode int

const (
	modeEncode mode = iota
	modeDecode
)

func (m mode) String() string {
	if m == modeDecode {
		return "decode"
	}
	return "encode"
}

var rootCmd = &cobra.Command{
	Use:           "qpcodec",
	Short:         "Quoted-printable (RFC 2045) encoder and decoder",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var encodeCmd = &cobra.Command{
	Use:   "encode [files...]",
	Short: "Encode files, or stdin to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args, modeEncode)
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [files...]",
	Short: "Decode files, or stdin to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args, modeDecode)
	},
}

func run(cmd *cobra.Command, args []string, m mode) error {
	ctx := cmd.Context()

	cfg, err := config.FromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg)

	switch {
	case cmd.Flags().Changed("text"):
		return runText(cmd.OutOrStdout(), cfg, m)
	case len(args) == 0:
		return runStream(cmd.InOrStdin(), cmd.OutOrStdout(), cfg, m)
	}

	runner := batch.New(
		batch.WithWorkers(cfg.Workers),
		batch.WithLogger(log),
		batch.WithOutputDir(cfg.OutputDir),
		batch.WithSuffix(cfg.Suffix),
		batch.WithLineSeparator(cfg.LineSeparatorBytes()),
	)

	log.InfoContext(ctx, "Starting batch", "mode", m.String(), "files", len(args), "workers", cfg.Workers)

	var sum batch.Summary
	if m == modeEncode {
		sum, err = runner.EncodeFiles(ctx, args)
	} else {
		sum, err = runner.DecodeFiles(ctx, args)
	}

	printSummary(cmd.ErrOrStderr(), m, sum)

	return err
}

func runStream(in io.Reader, out io.Writer, cfg *config.Config, m mode) error {
	if m == modeDecode {
		dec := quotedprintable.NewDecoder(in, quotedprintable.WithLineSeparator(cfg.LineSeparatorBytes()))
		_, err := io.Copy(out, dec)
		return err
	}

	// Close would close stdout.
	enc := quotedprintable.NewEncoder(out)
	if _, err := io.Copy(enc, in); err != nil {
		return err
	}
	return enc.Flush()
}

func runText(out io.Writer, cfg *config.Config, m mode) error {
	charset, err := quotedprintable.CharsetByName(cfg.Charset)
	if err != nil {
		return err
	}

	codec := quotedprintable.NewCodec(
		quotedprintable.WithCharset(charset),
		quotedprintable.WithDecodedLineSeparator(cfg.LineSeparatorBytes()),
	)

	if m == modeEncode {
		s, err := codec.Encode([]byte(text))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, s)
		return err
	}

	b, err := codec.Decode(text)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

func newLogger(cfg *config.Config) *slog.Logger {
	options := &slog.HandlerOptions{}

	if cfg.Debug {
		options.Level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cfg.LogPath != "" {
		w = io.MultiWriter(
			os.Stderr,
			&lumberjack.Logger{
				Filename:   cfg.LogPath,
				MaxSize:    5,
				MaxAge:     14,
				MaxBackups: 5,
			})
	}

	return slog.New(slog.NewJSONHandler(w, options))
}

func printSummary(w io.Writer, m mode, sum batch.Summary) {
	ok := color.New(color.FgHiGreen).SprintfFunc()
	bad := color.New(color.FgHiRed).SprintfFunc()

	status := ok("%d/%d files", sum.Files-sum.Failed, sum.Files)
	if sum.Failed > 0 {
		status = bad("%d/%d files (%d failed)", sum.Files-sum.Failed, sum.Files, sum.Failed)
	}

	fmt.Fprintf(w, "%s: %s, %s in, %s out\n",
		color.HiWhiteString(m.String()), status,
		color.HiCyanString("%d bytes", sum.BytesIn), color.HiCyanString("%d bytes", sum.BytesOut))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 4, "files processed concurrently")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", "", "output directory (default: next to each input)")
	encodeCmd.Flags().StringVarP(&text, "text", "t", "", "encode this text instead of files")
	decodeCmd.Flags().StringVarP(&text, "text", "t", "", "decode this text instead of files")

	rootCmd.AddCommand(encodeCmd, decodeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		}
		stop()
		os.Exit(1)
	}
}
