// Package model defines the reasoning-engine abstraction consumed by the
// conversation driver: a blocking Generate call that turns a message history
// plus tool definitions into one complete assistant reply. Provider
// implementations live in the subpackages (anthropic, openai); ScriptedModel
// serves tests.
package model
