package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"sync/atomic"
	"time"
)

// ObjectIDGenerator yields 24 hex character ids laid out like a MongoDB
// ObjectId: 4 bytes of unix seconds, 5 bytes of host and process identity
// and a 3 byte counter. Ids sort by creation second.
type ObjectIDGenerator struct {
	process [5]byte
	counter atomic.Uint32
}

func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	id, err := nodeIdentity()
	if err != nil {
		return nil, err
	}

	g := &ObjectIDGenerator{}
	sum := sha256.Sum256([]byte(id))
	copy(g.process[:3], sum[:3])
	binary.BigEndian.PutUint16(g.process[3:], uint16(os.Getpid()))

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter.Store(binary.BigEndian.Uint32(seed[:]))

	return g, nil
}

func (g *ObjectIDGenerator) Generate() string {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	copy(raw[4:9], g.process[:])

	c := g.counter.Add(1)
	raw[9], raw[10], raw[11] = byte(c>>16), byte(c>>8), byte(c)

	return hex.EncodeToString(raw[:])
}
