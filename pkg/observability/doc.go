/*
Package observability turns executor lifecycle events into logs and Prometheus
metrics. Both are exposed as domain.LifecycleHooks and can be combined with
domain.MergeHooks.
*/
package observability
