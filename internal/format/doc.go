// Package format provides the classification-type registry and the
// per-view format maps that turn classification names into tcell styles.
package format
