/*
Package ports defines the driven ports (interfaces) for the switchboard engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, language collaborators and
long-term memory stores.

# Key Interfaces

  - CheckpointStore: persists and loads the session State after every step.
  - DistributedLocker: provides distributed locking for concurrent session access.
  - Summarizer and Recaller: the short-term and long-term halves of memory.
  - Classifier and Responder: the language collaborators used by steps.
  - ToolInvoker: invokes named tools, reporting failures as data.
  - AccountStore: account-scoped customer, subscription and reservation data.
*/
package ports
