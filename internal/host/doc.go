// Package host models the editor objects that tagger sources attach to.
//
// A Buffer holds text and raises change notifications on edit. A View
// displays exactly one Buffer and carries a set of roles. Both are
// long-lived owners: they expose a stable identity and a closed
// notification so per-owner state can be released when they go away.
package host
