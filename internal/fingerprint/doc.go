// Package fingerprint computes and compares acoustic fingerprints.
//
// The default Provider shells out to fpcalc from chromaprint-tools and keeps
// the raw 32-bit subfingerprints, which compare by Hamming distance. Two
// encodings of the same recording typically land above 0.95 similarity even
// across formats and bitrates.
package fingerprint
