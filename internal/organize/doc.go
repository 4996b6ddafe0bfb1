// Package organize derives conflict-free rename plans from the track catalog.
//
// A plan renders each track's destination from the configured pattern,
// substitutes a placeholder for missing tag fields, sanitizes path components,
// and resolves destination collisions deterministically: tracks are processed
// in lexicographic source order, the first claimant keeps the unsuffixed name,
// later ones take -2, -3, and so on before the extension. Tracks already at
// their destination are omitted. The same catalog state always yields the
// same plan.
//
// Plans are proposals. Validate re-checks them against the filesystem so
// drift between planning and execution surfaces as conflicts instead of
// clobbered files; execution itself lives at the command boundary.
package organize
