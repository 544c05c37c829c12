// Package telemetry wires OpenTelemetry trace and metric export for designorch.
//
// Telemetry is disabled by default. When enabled, spans and metrics are
// exported over OTLP using gRPC (default) or http/protobuf:
//
//	telemetry:
//	  enabled: true
//	  protocol: grpc
//	  endpoint: "localhost:4317"
//	  sampling:
//	    rate: 0.25
//	  metrics:
//	    enabled: true
//	    export_interval: "15s"
//
// Exporter failures never stop the process. The instance is marked degraded
// and the global no-op providers stay in place.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
