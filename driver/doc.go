// Package driver implements the conversation loop that translates a
// free-text instruction into a correctly sequenced series of tool calls.
// The reasoning engine decides which tool to call and with what arguments;
// the driver is solely responsible for execution and history bookkeeping.
//
// One round is one reasoning-engine call. A reply without a tool invocation
// ends the loop; otherwise exactly the first tool invocation of the reply is
// executed and its result is appended to history before the next call. A
// configurable round cap guards against a runaway engine.
package driver
