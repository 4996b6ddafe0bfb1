// Package scan walks library directories and keeps the track catalog current.
//
// A scan is incremental: files whose size and modification time match the
// indexed row skip extraction entirely, extraction failures leave the prior
// row untouched, and rows whose files disappeared are reaped afterwards. Only
// rows under the scanned root are ever reaped, so scanning a subdirectory
// never disturbs the rest of the catalog.
//
// Extraction fans out across a bounded worker pool while a single collector
// goroutine owns all index writes.
package scan
