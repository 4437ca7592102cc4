// Package memory provides in-process implementations of the checkpoint and case stores.
// They are the default backends and the reference for the store contracts.
package memory
