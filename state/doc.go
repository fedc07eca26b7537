// Package state persists per-company application status across process
// restarts. One JSON document holds every company record, the aggregate
// stats counters and a free-form settings map; every mutation rewrites the
// document with write-then-rename atomicity so a crash never leaves a
// partially written file. A corrupt file is backed up and replaced by
// defaults rather than failing startup.
package state
