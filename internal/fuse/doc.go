// Package fuse merges incoming candidate records into existing master
// records under a tiered field policy and reports conflicts that need a
// human decision.
package fuse
