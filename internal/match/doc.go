// Package match scores incoming product records against the master catalog
// using field-weighted string similarity and classifies the best result.
package match
