// Package metrics provides the observability hooks of xcreport.
//
// Components receive a Recorder through an option and default to NoopRecorder, so
// metrics stay optional everywhere:
//
//	session := pipeline.NewSession(delegate, pipeline.WithRecorder(metrics.NoopRecorder{}))
//
// The ingest agent swaps in a PrometheusRecorder and serves it with HTTPHandler.
package metrics
