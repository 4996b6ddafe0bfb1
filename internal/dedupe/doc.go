// Package dedupe finds duplicate recordings in the track catalog.
//
// Three strategies escalate in cost and certainty: Metadata compares
// normalized tags with a duration gate, Hash compares exact file content, and
// Fingerprint compares Chromaprint acoustic fingerprints. Matching pairs feed
// a disjoint-set structure so groups close transitively: if A matches B and B
// matches C, all three land in one group even when A and C never compared.
//
// Hashes and fingerprints are computed lazily, persisted back to the catalog,
// and reused on later runs. Tracks a strategy cannot judge are reported as
// unresolved, never silently dropped.
package dedupe
