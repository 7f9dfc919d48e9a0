// Package app wires the ambient stack every navpulse binary shares.
//
// # Initialization Flow
//
//	1. Load configuration from the environment and an optional YAML file
//	2. Resolve and create the data, figures and logs directories
//	3. Initialize the JSON logger and tag it with the job name and run ID
//	4. Initialize tracing and the prometheus-backed meter
//	5. Build the step runner
//
// Binaries apply their flag overrides to Job.Config, build their steps and
// call Job.Run. Close writes the metrics textfile when one is configured and
// flushes telemetry.
package app
