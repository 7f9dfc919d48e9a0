// Package charts renders PNG charts with gonum.org/v1/plot.
//
// The builders (Scatter, ScatterByYear, BoxPlot, Histogram, TimeSeries)
// return a *plot.Plot and skip missing values; a chart without any point
// still gets its title and axes. Renderer saves plots at a fixed size and
// resolution and draws the per-fund chart sets of the plots job.
package charts
