package id

import "sync/atomic"

// HandleSource hands out process-unique, non-zero identity tokens.
type HandleSource interface {
	Next() uint64
}

// Sequence is a monotonically increasing HandleSource. The zero value is
// ready to use.
type Sequence struct {
	last atomic.Uint64
}

func (s *Sequence) Next() uint64 {
	return s.last.Add(1)
}
