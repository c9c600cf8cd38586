// Package review manages the human review queue: structured reasons,
// priority scoring, and atomic first-writer-wins decisions.
package review
