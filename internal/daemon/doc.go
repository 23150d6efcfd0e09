// Package daemon coordinates tempo's background collection loop: cron-driven
// collection runs, catalog hot reload, and optional render-after-collect,
// folded into a single lifecycle with flock-based locking to prevent multiple
// daemon instances from scraping the same targets.
package daemon
