// Package tracker orchestrates event processing: it composes note text from
// a call transcript or an email plus extracted key points, pushes the note
// through the conversation driver so the reasoning engine performs the
// necessary tool calls against the record backend, and then records the
// interaction in the durable state store.
package tracker
