/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

Both Metrics.Hooks and LoggingHooks return domain.LifecycleHooks; combine them with
domain.ChainHooks and pass the result to wayfinder.WithLifecycleHooks.
*/
package observability
