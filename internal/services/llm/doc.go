// Package llm wraps the chat-completions API used by the classification,
// extraction, and validation collaborators. It enforces JSON-only responses
// and retries transient HTTP failures with bounded exponential backoff.
package llm
