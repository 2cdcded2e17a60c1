package uid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time ordered 63-bit ids.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator on a random node (0..1023). Collisions
// across replicas need two replicas on the same node generating within the
// same millisecond and sequence, which the primary key then rejects.
func NewSnowflake() (*Snowflake, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, err
	}

	return NewSnowflakeNode(int64(binary.BigEndian.Uint16(b[:]) % 1024))
}

// NewSnowflakeNode returns a generator bound to node.
func NewSnowflakeNode(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("uid: snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
