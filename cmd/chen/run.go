package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chen-lang/chen/pkg/compiler"
	cherrors "github.com/chen-lang/chen/pkg/errors"
	"github.com/chen-lang/chen/pkg/metrics"
	"github.com/chen-lang/chen/pkg/parser"
	"github.com/chen-lang/chen/pkg/stdlib/date"
	"github.com/chen-lang/chen/pkg/stdlib/db"
	"github.com/chen-lang/chen/pkg/stdlib/docdb"
	stdlibfs "github.com/chen-lang/chen/pkg/stdlib/fs"
	stdlibio "github.com/chen-lang/chen/pkg/stdlib/io"
	stdlibjson "github.com/chen-lang/chen/pkg/stdlib/json"
	"github.com/chen-lang/chen/pkg/stdlib/kv"
	"github.com/chen-lang/chen/pkg/tracing"
	"github.com/chen-lang/chen/pkg/vm"
)

func newRunMetrics() *metrics.Metrics {
	return metrics.NewMetrics(metrics.DefaultConfig())
}

func newRunCommand() *cobra.Command {
	var maxSteps int64
	var traceEnabled bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run <path|->",
		Short: "Compile and execute a Chen Lang program",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src, fileName, err := readSource(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("could not read %s: %v", args[0], err))
				os.Exit(2)
			}

			prog, err := parser.Parse(src)
			if err != nil {
				printCompileError(err, src, fileName)
				os.Exit(1)
			}

			bc, err := compiler.CompileProgram(prog)
			if err != nil {
				printCompileError(err, src, fileName)
				os.Exit(1)
			}

			vmInst := vm.New(bc)
			registerStdlib(vmInst)

			if maxSteps <= 0 {
				maxSteps = int64(cfg.MaxSteps)
			}
			vmInst.SetMaxSteps(maxSteps)
			vmInst.SetTrace(traceEnabled || cfg.Tracing.Enabled)

			stopMetrics := maybeServeMetrics(metricsAddr)
			defer stopMetrics()

			if err := runTraced(vmInst, traceEnabled || cfg.Tracing.Enabled); err != nil {
				logger.Error(err.Error())
				fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
				os.Exit(2)
			}
		},
	}

	cmd.Flags().Int64Var(&maxSteps, "max-steps", 0, "maximum VM instructions before Cancelled (0 = use chen.yaml default)")
	cmd.Flags().BoolVar(&traceEnabled, "trace", false, "emit an OpenTelemetry span for this run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address while running")
	return cmd
}

func runTraced(vmInst *vm.VM, traced bool) error {
	if !traced {
		return vmInst.Run()
	}
	tp, err := tracing.InitTracing(&tracing.Config{Enabled: true, ExporterType: "stdout", ServiceName: "chen"})
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	return tracing.WithSpan(context.Background(), "chen.run", func(ctx context.Context) error {
		return vmInst.Run()
	})
}

func registerStdlib(vmInst *vm.VM) {
	stdlibio.Register(vmInst)
	stdlibjson.Register(vmInst)
	date.Register(vmInst)
	stdlibfs.Register(vmInst)
	kv.Register(vmInst)
	db.Register(vmInst)
	docdb.Register(vmInst)
}

func maybeServeMetrics(addr string) func() {
	if addr == "" && !cfg.Metrics.Enabled {
		return func() {}
	}
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	m := newRunMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(fmt.Sprintf("metrics server: %v", err))
		}
	}()
	return func() { srv.Shutdown(context.Background()) }
}

func readSource(path string) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "<stdin>", err
	}
	data, err := os.ReadFile(path)
	return string(data), path, err
}

func printCompileError(err error, src, fileName string) {
	line, col := 0, 0
	switch e := err.(type) {
	case *parser.ParseError:
		line, col = e.Line, e.Column
	case *compiler.SemanticError:
		line = e.Line
	}
	ce := cherrors.WithFileName(cherrors.WithLineInfo(err, line, col, src), fileName)
	fmt.Fprintln(os.Stderr, cherrors.FormatError(ce))
}
