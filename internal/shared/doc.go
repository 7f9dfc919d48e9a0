// Package shared holds helpers used across packages that belong to no
// single domain.
//
// The testutil subpackage provides a capturing slog handler for asserting
// on log output:
//
//	logger, handler := testutil.NewTestLogger(t)
//	job.Run(ctx, logger)
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Fund preprocessed")
package shared
