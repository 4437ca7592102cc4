// Package memory implements the short-term rolling summary and long-term recall
// used by the support workflow.
//
// Short-term memory is an extractive digest of the conversation bounded by a
// token budget. Long-term memory is derived from case records kept in a
// ports.CaseStore (memory, redis or sqlite).
package memory
