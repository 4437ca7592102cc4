// Package runtime contains the graph executor: the loop that invokes steps,
// validates and folds their partial updates, records the execution trace,
// checkpoints the State and asks the router for the next step.
package runtime
