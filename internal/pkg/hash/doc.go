// Package hash provides keyed digests for secrets that are stored for
// comparison only, such as recovery codes.
package hash
