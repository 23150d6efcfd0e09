// Package collect acquires counter snapshots from remote source pages and
// appends them as JSONL records in the shape the ingestion pipeline reads.
//
// A collection run walks the enabled catalog sources, scrapes every item's
// detail page, and writes one record per item with the collection-timezone
// date, hour, and minute. Extraction failures produce records with absent
// counters and an error field instead of aborting the run.
package collect
