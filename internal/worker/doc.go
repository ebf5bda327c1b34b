// Package worker выполняет задачи обработки файлов.
//
// Задача (строка file_tasks) создаётся API и публикуется в files.pending.
// Worker забирает её через Claim (QUEUED → RUNNING), запускает run
// оркестратора под hard time limit и записывает итог:
//
//	"completed"          → COMPLETED
//	"failed: <reason>"   → FAILED
//
// Отозванные до старта задачи не выполняются. Отзыв во время run
// фиксируется в БД, но run доходит до конца.
//
// Если брокер недоступен, задачи подхватывает polling QUEUED строк.
// StepRecorder пишет локальную историю шагов в task_steps.
//
//	w := worker.New(worker.Config{
//	    Tasks:       taskRepo,
//	    Runner:      orch,
//	    Notifier:    publisher,
//	    Conn:        conn,
//	    Concurrency: cfg.Worker.Concurrency,
//	})
//	w.Start(ctx)
//	defer w.Stop()
package worker
