// Package extraction classifies raw product text, extracts structured
// fields, and validates the result using the shared LLM client. Each
// collaborator is an interface so the pipeline can be tested without
// network access.
package extraction
