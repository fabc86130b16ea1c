// Package daemon runs the scan loop: one scan immediately, then one per
// configured interval, with flock-based locking to prevent concurrent
// instances. Configuration is reloaded before every cycle so edits take
// effect without a restart.
package daemon
