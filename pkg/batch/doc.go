// Package batch runs one data request per query instance and merges the
// answers into a single result.
//
// Instances are fetched by a bounded worker pool. Outcomes are collected per
// instance index and reassembled in enumeration order, so the output does not
// depend on completion order.
//
// Example usage:
//
//	orch := batch.New(themaClient, batch.DefaultConfig(), logger)
//	res, err := orch.Run(ctx, family, expansion)
//
// Failure semantics depend on the expansion:
//   - A single, non-combinatorial instance is strict: an empty answer is
//     ErrNoData and any error cancels the run.
//   - In combinatorial mode an empty answer is recorded in the rejection
//     ledger and the run continues. Other failures do not cancel sibling
//     requests; the first one in enumeration order is returned once all
//     requests have finished. Errors matched by Config.Abort (such as an
//     authentication failure) cancel the whole run at once.
//   - A combinatorial run that yields no rows at all is ErrNoValidCombinations.
//     When some of its requests failed, the first failure is wrapped too.
package batch
