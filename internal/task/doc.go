// Package task runs alt-text jobs in the background. Job ids flow through a
// Queue to a pool of workers owned by the Runner; each worker executes one
// job at a time with the AltTextProcessor under a wall-clock ceiling. Jobs
// left behind by a crash or restart are picked up again on Start and by the
// stale-job monitor.
package task
