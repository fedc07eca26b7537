// Package core holds the shared conversation content model used across the
// protocol session, the reasoning-engine adapters and the conversation
// driver: role-tagged messages composed of ordered text, tool-use and
// tool-result parts.
//
// The package intentionally contains no behavior beyond accessors so that
// model adapters, the driver and tests can depend on it without cycles.
package core
