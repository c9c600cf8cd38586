// Package daemon runs the background inbox watcher: a single flock-guarded
// instance polls a directory and feeds each dropped file into the pipeline.
package daemon
