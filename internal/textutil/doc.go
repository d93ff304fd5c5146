// Package textutil provides text processing helpers for slugs and display
// copy.
//
// The primary use cases are:
//   - Validating and sanitizing story slugs for safe filesystem use
//   - Turning slugs into human-readable display titles
//   - Greedy word wrapping with line budgets for cover typography
package textutil
