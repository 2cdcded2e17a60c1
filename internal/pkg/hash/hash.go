package hash

// Hash produces one-way digests of short secrets. Digests are compared by
// the store as lookup keys, never checked in process.
type Hash interface {
	// Hash returns the encoded digest of str.
	Hash(str string) ([]byte, error)
}
