// Package telemetry groups the core.TelemetryHook implementations shipped
// with Lumen: zaplog for structured logs, prom for Prometheus metrics and
// otel for OpenTelemetry spans. Combine them with core.MultiTelemetryHook.
package telemetry
