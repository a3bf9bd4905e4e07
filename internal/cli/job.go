package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/runner"
)

// runJob runs job on a background worker while the command goroutine draws
// its progress. It returns the job's error once the job has finished.
func runJob(cmd *cobra.Command, stage string, job runner.Job) error {
	w := getWriter(cmd)
	ctx := cmd.Context()

	q := runner.NewQueue(64)
	wk := runner.NewWorker(q, getLogger(cmd))
	wk.Start(ctx)
	defer wk.Stop()

	var done bool
	var jobErr error
	err := wk.Submit(stage, job, runner.Callbacks{
		Progress: func(p int) { w.Progress(stage, p) },
		Done: func(err error) {
			jobErr = err
			done = true
		},
	})
	if err != nil {
		return err
	}

	finished := func() bool { return done }
	if err := q.Drain(ctx, finished); err != nil {
		// The job sees the same cancellation; wait for its last callbacks.
		_ = q.Drain(context.Background(), finished)
	}
	return jobErr
}
