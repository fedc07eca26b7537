// Package mcp implements the protocol session: a stateful handle to one
// spawned MCP server process offering tool enumeration and a correlated
// call/response primitive over stdio.
//
// Lifecycle: disconnected → connecting → ready → closed. The tool catalog is
// fetched once per session and reused for every reasoning-engine call. The
// session serializes tool calls internally so at most one is in flight at a
// time; it is otherwise agnostic to which external service the wrapped
// server talks to.
package mcp
