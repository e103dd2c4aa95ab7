package core

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// IDSource hands out record identifiers. Implementations must never return
// the same id twice and must be non-decreasing within a process.
type IDSource interface {
	NextID() int64
}

// SnowflakeIDs generates time-ordered ids from a snowflake node.
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs creates a generator for the given node number (0-1023).
func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", node, err)
	}
	return &SnowflakeIDs{node: n}, nil
}

// NextID implements IDSource.
func (s *SnowflakeIDs) NextID() int64 {
	return s.node.Generate().Int64()
}

// SequenceIDs is a deterministic IDSource starting after a given value.
// Tests use it, and it can resume after the highest id of a loaded store.
type SequenceIDs struct {
	mu   sync.Mutex
	last int64
}

// NewSequenceIDs returns a source whose first id is after+1.
func NewSequenceIDs(after int64) *SequenceIDs {
	return &SequenceIDs{last: after}
}

// NextID implements IDSource.
func (s *SequenceIDs) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}
