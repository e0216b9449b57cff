// Package scoring holds the one stdlib-only numeric helper the core needs:
// clamping a score into [0,1]. No third-party dependency in the examples
// pack offers this (it is a one-line arithmetic operation), so it stays on
// the standard library per the grounding ledger's stdlib-justification rule.
package scoring

// Clamp01 bounds v to the closed interval [0,1]. Every score the Reasoning
// and Evaluation Chains produce is run through this before leaving the parser.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
