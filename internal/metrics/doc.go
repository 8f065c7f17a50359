// Package metrics provides run metrics for easearch.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	recorder := metrics.Recorder(metrics.NoopRecorder{})
//	if cfg.Metrics.Textfile != "" {
//	    recorder = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
//	}
//
// PrometheusRecorder can dump its registry in the text exposition format
// (WriteTextfile) for the node_exporter textfile collector, which suits a
// batch job that exits after each run.
package metrics
