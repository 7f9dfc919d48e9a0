// Package report prints the console summaries of the batch jobs and saves
// the rule workbook.
//
// Correlations are Pearson coefficients over pairwise complete rows; a pair
// with fewer than two complete rows or a constant side prints as NaN. Rule
// tables are aligned with text/tabwriter and show support, confidence and
// lift with four decimals.
package report
