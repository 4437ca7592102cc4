/*
Package domain contains the core domain models of the switchboard engine.

It defines the session State threaded through every step, the PartialState a
step returns, the Step contract itself and the errors the engine can surface.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - State: the versioned snapshot of one support conversation (messages,
    classification, escalation flags, rolling summary, execution trace).
  - PartialState: the sparse update a step returns. Every field is a Field[T]
    so "absent" is distinct from "set to the zero value".
  - Step: a named, side-effect classified function from State to PartialState.
  - ToolResult: the outcome of a tool invocation, carried as data.
*/
package domain
