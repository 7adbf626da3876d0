// Package metrics filters grouped building statistics and derives the
// table, summary and chart views of the dashboard from the filtered set.
//
// Records are fetched once per view and handed to a Controller, which owns
// the filter selection as an immutable State. Evaluation and aggregation
// are pure functions of their inputs.
package metrics
