// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import "sync"

// bufferPool manages reusable byte slices so repeated Serialize calls
// against pooled message objects don't each pay for a fresh allocation.
// Adapted from the teacher's offsetSlicePool (offsetpool.go), which pooled
// scratch []int slices for SSZ offset bookkeeping; this engine has no
// offset table to pool, but the same sync.Pool shape serves the wire
// buffer itself.
type bufferPool struct {
	pool sync.Pool
}

var defaultBufferPool = &bufferPool{
	pool: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 0, 256)
			return &buf
		},
	},
}

// Get returns a zero-length byte slice from the pool, ready to be appended
// to.
func (p *bufferPool) Get() []byte {
	return (*p.pool.Get().(*[]byte))[:0]
}

// Put returns a slice to the pool for reuse. Slices are accepted back by
// capacity, not by identity, so callers must not retain buf after Put.
func (p *bufferPool) Put(buf []byte) {
	if cap(buf) > 0 {
		p.pool.Put(&buf)
	}
}

// SerializeBuffer serializes value into a pooled buffer and returns it
// along with a release function the caller must call once done reading
// the bytes. This avoids an allocation per call for callers that only
// need the bytes transiently (e.g. writing straight to a socket).
func (e *Engine) SerializeBuffer(value interface{}) (buf []byte, release func(), err error) {
	buf = defaultBufferPool.Get()
	buf, err = e.Serialize(value, buf)
	if err != nil {
		defaultBufferPool.Put(buf)
		return nil, func() {}, err
	}
	return buf, func() { defaultBufferPool.Put(buf) }, nil
}
