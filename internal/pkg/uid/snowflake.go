package uid

import (
	"hash/fnv"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake derives the node number from the host identity and pid so
// replicas sharing a database do not collide.
func NewSnowflake() (*Snowflake, error) {
	id, err := nodeIdentity()
	if err != nil {
		return nil, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(id + "/" + strconv.Itoa(os.Getpid())))

	node, err := snowflake.NewNode(int64(h.Sum32()) & (1<<snowflake.NodeBits - 1))
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
