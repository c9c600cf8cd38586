// Package catalog defines the shared product field model: the structured
// attribute set produced by extraction and the canonical master record shape
// stored in the catalog. The matcher, the fusion engine, and the store all
// operate on these types so field names stay consistent across the pipeline.
package catalog
