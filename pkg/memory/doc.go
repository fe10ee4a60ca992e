// Package memory persists conversation snapshots as timestamped JSON files
// under the MiniAgent home directory.
//
// Invariants:
// - Snapshot filenames follow YYYYMMDD_HHMM.json.
// - Retention keeps only the newest maxFiles snapshots; pruning happens on save.
// - Index 1 always refers to the most recent snapshot.
package memory
