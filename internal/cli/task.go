package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для задач обработки.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect and stop file tasks",
	}

	cmd.AddCommand(
		newTaskListCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
		newTaskStepsCmd(clientFn, outputFn),
		newTaskStopCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tasks, err := client.ListTasks(cmd.Context(), ListTasksOpts{
				Status: status,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "SOURCE", "FILE", "CREATED"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{t.ID, t.Status, t.Source, t.FilePath, t.CreatedAt}
			}

			out.Print(headers, rows, tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (QUEUED, RUNNING, COMPLETED, FAILED, REVOKED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(outputFn(), task)
			return nil
		},
	}
}

func newTaskStepsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps TASK_ID",
		Short: "List executed steps of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			steps, err := client.ListTaskSteps(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			headers := []string{"ORDER", "NAME", "STATUS", "OUTPUT", "STARTED"}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{strconv.Itoa(s.Order), s.Name, s.Status, s.OutputLocation, s.StartedAt}
			}

			out.Print(headers, rows, steps)
			return nil
		},
	}
}

func newTaskStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop TASK_ID",
		Short: "Revoke a queued or running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			res, err := clientFn().StopTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printTask(out, &res.Task)
			out.Success(fmt.Sprintf("Task %s revoked, %d step(s) skipped", res.Task.ID, res.SkippedSteps))
			return nil
		},
	}
}

func printTask(out *Output, t *TaskResponse) {
	var duration string
	if t.DurationMs > 0 {
		duration = strconv.FormatInt(t.DurationMs, 10) + "ms"
	}
	out.Fields([][2]string{
		{"ID", t.ID},
		{"Status", t.Status},
		{"Source", t.Source},
		{"File", t.FilePath},
		{"Result", t.Result},
		{"Error", t.Error},
		{"Created", t.CreatedAt},
		{"Started", t.StartedAt},
		{"Finished", t.FinishedAt},
		{"Duration", duration},
	}, t)
}
