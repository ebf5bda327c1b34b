package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Datahub/internal/domain"
)

// Runner выполняет файл через workflow в текущем процессе.
type Runner interface {
	Run(ctx context.Context, filePath, runID string, source domain.SourceType) string
}

// NewRunCmd создаёт команду локального выполнения файла без очереди
// и базы: run идёт в процессе CLI, шаги отчитываются в workflow-сервис.
//
// runnerFn вызывается после парсинга флагов.
func NewRunCmd(runnerFn func() (Runner, error), outputFn func() *Output) *cobra.Command {
	var source string
	var runID string

	cmd := &cobra.Command{
		Use:   "run FILE_PATH",
		Short: "Run a file through its workflow in-process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			src, ok := domain.ParseSourceType(source)
			if !ok {
				return fmt.Errorf("invalid source %q", source)
			}
			if runID == "" {
				runID = uuid.NewString()
			}

			runner, err := runnerFn()
			if err != nil {
				return err
			}

			result := runner.Run(cmd.Context(), args[0], runID, src)
			out.Print(
				[]string{"RUN_ID", "FILE", "RESULT"},
				[][]string{{runID, args[0], result}},
				map[string]string{"run_id": runID, "file_path": args[0], "result": result},
			)

			if reason, failed := strings.CutPrefix(result, domain.RunResultFailed+": "); failed {
				return fmt.Errorf("run %s failed: %s", runID, reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", string(domain.SourceLocal), "File source: local or s3")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run ID reported to the workflow service (default: random UUID)")

	return cmd
}
