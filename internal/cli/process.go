package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// terminalStatuses — статусы задачи, после которых она не меняется.
var terminalStatuses = map[string]bool{
	"COMPLETED": true,
	"FAILED":    true,
	"REVOKED":   true,
}

// NewProcessCmd создаёт команду постановки файла в очередь.
func NewProcessCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var source string
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "process FILE_PATH",
		Short: "Queue a file for processing",
		Long: `Queue a file for processing by the workers.

FILE_PATH is an object key in the raw bucket (source s3) or a path on
the worker host (source local). With --wait the command polls the task
until it reaches a terminal status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := client.ProcessFile(cmd.Context(), ProcessFileRequest{
				FilePath: args[0],
				Source:   source,
			})
			if err != nil {
				return err
			}

			if !wait {
				out.Print([]string{"ID"}, [][]string{{id}}, map[string]string{"id": id})
				out.Success(fmt.Sprintf("Task %s queued", id))
				return nil
			}

			task, err := waitTask(cmd.Context(), client, id, interval)
			if err != nil {
				return err
			}
			printTask(out, task)
			if task.Status != "COMPLETED" {
				return fmt.Errorf("task %s finished with status %s", id, task.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "File source: s3 (default) or local")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the task to finish")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval for --wait")

	return cmd
}

// waitTask опрашивает задачу, пока она не станет терминальной.
func waitTask(ctx context.Context, client *Client, id string, interval time.Duration) (*TaskResponse, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := client.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if terminalStatuses[strings.ToUpper(task.Status)] {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
