// Package operations runs the steps of a batch job in order.
//
// Each binary builds its job as a list of Steps (load, derive, write, ...)
// and hands them to a Runner together with a State. The Runner opens an
// OpenTelemetry span per step, records the step duration and failures on
// the pipeline metrics, and logs every transition. The first failing step
// aborts the run; its error comes back as a *StepError naming the step, and
// the steps after it are marked skipped.
//
// Steps share results through the State context map:
//
//	state := operations.NewState(runID)
//	runner := operations.NewRunner(providers, logger)
//	err := runner.Run(ctx, state,
//		operations.NewStep("load", "Load table", func(ctx context.Context, s *operations.State) error {
//			t, err := dataprocessing.ReadCSV(path, opts)
//			s.SetContext("table", t)
//			return err
//		}),
//		operations.NewStep("write", "Write output", writeStep),
//	)
package operations
