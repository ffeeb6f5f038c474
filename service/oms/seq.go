package oms

import (
	"fmt"
	"sync/atomic"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
)

// IDGenerator hands out identifiers for new orders and trades
type IDGenerator interface {
	NextID() (string, error)
}

type uuidSeq struct{}

// UUIDSeq generates random version 4 uuids
func UUIDSeq() IDGenerator {
	return uuidSeq{}
}

func (uuidSeq) NextID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "generate id")
	}
	return id.String(), nil
}

type counterSeq struct {
	prefix string
	last   *uint64
}

// CounterSeq generates predictable ids, used where the ids must be known in advance
func CounterSeq(prefix string) IDGenerator {
	return &counterSeq{prefix: prefix, last: new(uint64)}
}

func (s *counterSeq) NextID() (string, error) {
	return fmt.Sprintf("%s%d", s.prefix, atomic.AddUint64(s.last, 1)), nil
}
