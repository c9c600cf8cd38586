// Package services holds cross-cutting plumbing shared by pipeline stages:
// the sentinel error taxonomy used to classify failures, and context
// annotation helpers for run and stage identifiers.
package services
