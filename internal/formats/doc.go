// Package formats turns an extractor's heterogeneous format list into the small
// set of per-resolution choices the service offers.
//
// Normalize buckets free-text resolution labels into six canonical values, and
// Reduce keeps the largest known-size video format per bucket. Both are pure
// functions with no I/O.
package formats
