// Package steps provides the support-desk workflow steps: classification,
// resolution, escalation and memory update.
//
// Each step reads an immutable State snapshot and returns a PartialState
// limited to the fields it declares in Writes. Collaborators (classifier,
// responder, tools, memory) are injected through ports so the same steps run
// with the offline keyword implementations in this package or an LLM adapter.
package steps
