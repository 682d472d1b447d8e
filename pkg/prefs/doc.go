// Package prefs holds the preference model and the DataStore handle.
//
// A DataStore owns one bbolt file with a bucket per value kind. Each entry
// is keyed by its name inside the bucket of its kind, so "volume" stored as
// an int and "volume" stored as a string are independent entries. Values
// are protobuf wrapper messages (Int32Value, Int64Value, FloatValue,
// BoolValue, StringValue).
//
// Reads are served from an immutable snapshot; Edit builds the next
// snapshot from a mutable copy and commits only the changed keys.
package prefs
