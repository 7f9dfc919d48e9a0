// Package benchmark reads the benchmark index history from a spreadsheet
// export and joins it onto fund exports by trading date.
//
// The index workbook holds a header row with "Trade Date" and "Index Value"
// somewhere near the top, followed by one row per trading day. Dates may be
// stored as text or as Excel serial numbers.
//
// Usage:
//
//	points, err := benchmark.ReadIndexWorkbook("full_OMXS30.xlsx", "", logger)
//	if err != nil {
//		return err
//	}
//	benchmark.DailyReturns(points)
//	joined, err := benchmark.JoinCompany(table, points, dataprocessing.ColTradeDate)
package benchmark
