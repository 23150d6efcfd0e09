// Package ingest reads JSONL snapshot exports from disk into raw records
// for normalization.
package ingest
