// Package idgen issues identifiers used by the kernel: opaque uuid strings
// for boots, snapshots and events, and integer process ids.
// It lives under `internal` because callers should not rely on its exact
// behaviour – uuid values are opaque and the pid sequence is an
// implementation detail of the allocator.
package idgen
