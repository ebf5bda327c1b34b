// Datahub CLI — инструмент командной строки для постановки файлов
// в обработку и просмотра задач через HTTP API.
//
// Использование:
//
//	datahub [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	process  Поставить файл в очередь
//	task     Просмотр и отзыв задач
//	run      Выполнить файл локально, без очереди
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Datahub/internal/cli"
	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/pipeline"
	"github.com/shaiso/Datahub/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var configPath string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "datahub",
		Short:         "Datahub CLI — file processing workflows",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv(config.EnvAPIURL); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.BaseConfigFile, "Config file for the run command")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	runnerFn := func() (cli.Runner, error) {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		p, err := pipeline.New(cfg, pipeline.Options{Logger: stderrLogger()})
		if err != nil {
			return nil, err
		}
		return p.Orchestrator, nil
	}

	rootCmd.AddCommand(
		cli.NewProcessCmd(clientFn, outputFn),
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewRunCmd(runnerFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// stderrLogger — логи run идут в stderr, чтобы не смешиваться с выводом.
func stderrLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: telemetry.LogLevel()}))
}
