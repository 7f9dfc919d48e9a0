// Package files discovers the inputs of the batch jobs in a data directory.
//
// File kinds follow the naming used by the jobs: a raw fund export
// (Investor.csv) becomes Investor_preprocess.csv after preprocess and
// Investor_test.csv after the index join; spreadsheets are index exports.
//
// Example usage:
//
//	d := files.NewDiscovery(paths.DataDir)
//	d.Skip = []string{"OMXS30.csv"}
//	funds, err := d.FindFundExports(".")
package files
