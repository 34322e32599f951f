package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered unique ID. Falls back to node 0 if Init
// was never called, which is what the CLI and tests rely on.
func New() int64 {
	once.Do(func() {
		node, _ = snowflake.NewNode(0)
	})
	return node.Generate().Int64()
}

// NewAdvisoryID returns a fresh advisory id in its string form, as used
// for status stream keys and log fields.
func NewAdvisoryID() string {
	return snowflake.ID(New()).String()
}
