// Package dataprocessing loads fund price/NAV exports and prepares them for
// metric derivation.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Table: a column-oriented view of a delimited export, raw text plus typed columns
// 2. Normalizer: parses Swedish-formatted numeric text ("1 234,5", "2,5%")
// 3. Date filter: parses the date axis and restricts rows by cutoff or year range
//
// # Usage
//
//	table, err := dataprocessing.ReadCSV("data/Investor.csv", dataprocessing.ReadOptions{
//	    Exclude: dataprocessing.PreprocessExcluded,
//	})
//	if err != nil {
//	    return err
//	}
//	stats, err := table.NormalizeNumeric(logger, dataprocessing.RequiredColumns...)
//	if _, err := table.ParseDates("Investor Date"); err != nil {
//	    return err
//	}
//	recent := table.FilterBefore(cutoff)
//
// # Missing Values
//
// Unparseable numeric cells become NaN and unparseable dates the zero time.
// Neither is an error; only a missing column aborts processing.
package dataprocessing
