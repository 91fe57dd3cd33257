// Package handler implements the probe pipeline: kill-switch gate, check
// list loading, concurrent check execution and verdict rendering.
package handler
