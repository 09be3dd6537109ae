// Package testutils provides utilities for testing the Vesper runtime in Go.
package testutils

import (
	"fmt"
	"sync"

	"github.com/vesperlang/vesper"
)

// testRuntime is the runtime used for all tests.
var testRuntime *vesper.Runtime

var testRuntimeInit sync.Once

// TestingRuntime returns a runtime for testing. The runtime is shared by
// all tests that use this package.
func TestingRuntime() *vesper.Runtime {
	testRuntimeInit.Do(ResetTestingRuntime)
	return testRuntime
}

// ResetTestingRuntime reinitializes the runtime returned by TestingRuntime.
// It is not safe to call this in parallel tests.
func ResetTestingRuntime() {
	testRuntime = vesper.NewRuntime()
}

// MustClass builds a class and panics on a definition error. Tests use it
// for hierarchies that must be valid.
func MustClass(name string, parents ...*vesper.Class) *vesper.Class {
	c, err := vesper.NewClass(name, parents...)
	if err != nil {
		panic(err)
	}
	return c
}

// ConstValue returns a Body that evaluates to a fixed value, for field
// initializers in tests.
func ConstValue(v vesper.Value) vesper.Body {
	return vesper.BodyFunc(func(r *vesper.Runtime, s *vesper.Scope) (vesper.Value, vesper.Stop) {
		return v, vesper.NoStop
	})
}

// Token kinds of the in-memory codec.
const (
	tokInt = iota
	tokString
	tokSym
	tokRef
	tokList
)

type token struct {
	kind int
	n    int64
	s    string
}

// MemCodec is an in-memory implementation of the codec boundary for
// round-trip tests. Symbols are cached: the first occurrence is written in
// full and later occurrences become back-references, matching what a real
// codec does with repeated class and member names.
type MemCodec struct {
	toks []token
	pos  int

	symsOut map[string]int64
	symsIn  []string
}

// NewMemCodec creates an empty in-memory codec.
func NewMemCodec() *MemCodec {
	return &MemCodec{symsOut: map[string]int64{}}
}

// Rewind resets the read position so everything encoded can be decoded.
func (c *MemCodec) Rewind() {
	c.pos = 0
	c.symsIn = c.symsIn[:0]
}

// Len returns the number of encoded tokens.
func (c *MemCodec) Len() int {
	return len(c.toks)
}

// EncodeInt implements vesper.Encoder.
func (c *MemCodec) EncodeInt(n int64) error {
	c.toks = append(c.toks, token{kind: tokInt, n: n})
	return nil
}

// EncodeString implements vesper.Encoder.
func (c *MemCodec) EncodeString(s string) error {
	c.toks = append(c.toks, token{kind: tokString, s: s})
	return nil
}

// EncodeSym implements vesper.Encoder.
func (c *MemCodec) EncodeSym(s string) error {
	if id, ok := c.symsOut[s]; ok {
		c.toks = append(c.toks, token{kind: tokRef, n: id})
		return nil
	}
	c.symsOut[s] = int64(len(c.symsOut))
	c.toks = append(c.toks, token{kind: tokSym, s: s})
	return nil
}

// EncodeList implements vesper.Encoder.
func (c *MemCodec) EncodeList(n int) error {
	c.toks = append(c.toks, token{kind: tokList, n: int64(n)})
	return nil
}

func (c *MemCodec) next(kind int) (token, error) {
	if c.pos >= len(c.toks) {
		return token{}, fmt.Errorf("testutils: codec exhausted at %d", c.pos)
	}
	t := c.toks[c.pos]
	c.pos++
	if t.kind != kind && !(kind == tokSym && t.kind == tokRef) {
		return token{}, fmt.Errorf("testutils: token %d has kind %d, want %d", c.pos-1, t.kind, kind)
	}
	return t, nil
}

// DecodeInt implements vesper.Decoder.
func (c *MemCodec) DecodeInt() (int64, error) {
	t, err := c.next(tokInt)
	return t.n, err
}

// DecodeString implements vesper.Decoder.
func (c *MemCodec) DecodeString() (string, error) {
	t, err := c.next(tokString)
	return t.s, err
}

// DecodeSym implements vesper.Decoder.
func (c *MemCodec) DecodeSym() (string, error) {
	t, err := c.next(tokSym)
	if err != nil {
		return "", err
	}
	if t.kind == tokRef {
		if t.n < 0 || int(t.n) >= len(c.symsIn) {
			return "", fmt.Errorf("testutils: bad symbol reference %d", t.n)
		}
		return c.symsIn[t.n], nil
	}
	c.symsIn = append(c.symsIn, t.s)
	return t.s, nil
}

// DecodeList implements vesper.Decoder.
func (c *MemCodec) DecodeList() (int, error) {
	t, err := c.next(tokList)
	return int(t.n), err
}
