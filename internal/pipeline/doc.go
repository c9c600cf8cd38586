// Package pipeline orchestrates product record runs through classify,
// extract, validate, match, fusion, save, and review stages. Routing is a
// static transition table over enumerated stages and outcomes; each run
// executes asynchronously and sequentially to a terminal state.
package pipeline
