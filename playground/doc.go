// Package playground holds small demonstrations of the flow engine, each
// exposed as a flow of printable lines so it can be run from the command line
// or streamed over SSE.
package playground
