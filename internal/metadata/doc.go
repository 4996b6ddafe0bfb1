// Package metadata extracts tag fields and durations from audio files.
//
// The default Extractor reads tags with dhowden/tag and probes durations from
// container headers directly, falling back to a bitrate estimate when the
// container gives nothing usable. Files without embedded tags still extract;
// missing fields stay empty and downstream consumers substitute placeholders.
package metadata
