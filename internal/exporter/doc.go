// Package exporter writes the CSV outputs of the batch jobs.
//
// CSVWriter is the core writer with an optional UTF-8 BOM and a streaming
// variant for long tables. On top of it:
//
//   - WriteFrame writes a derived frame as DATE plus one column per metric
//   - WriteTable writes a loaded table back out, raw text preserved
//   - WriteRules writes association rules with every rule measure
//
// Missing values are written as empty cells and infinite conviction as "inf".
// Floats use the shortest representation that round-trips.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	if err := w.WriteFrame("Investor_preprocess.csv", frame); err != nil {
//		return err
//	}
package exporter
