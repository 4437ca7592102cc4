/*
Package session serializes access to support sessions.

The Manager guarantees at most one in-flight run per session id: a
reference-counted local mutex covers a single process, and an optional
ports.DistributedLocker (e.g. the redis adapter) covers multiple replicas
sharing one checkpoint store.
*/
package session
