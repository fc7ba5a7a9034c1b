// Package strpool implements the deduplicated string table of one catalogue
// generation. Ids are insertion positions and never change while the pool
// lives; matching is exact and case-sensitive.
package strpool

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/binfmt"
)

// Pool maps strings to stable ids and back
type Pool struct {
	strs  []string
	index map[string]uint32
}

// New returns an empty pool
func New() *Pool {
	return &Pool{index: make(map[string]uint32)}
}

// FromStrings rebuilds a pool from a decoded string table. If the table holds
// the same value twice, lookups return the first id.
func FromStrings(strs []string) *Pool {
	p := &Pool{
		strs:  make([]string, len(strs)),
		index: make(map[string]uint32, len(strs)),
	}
	copy(p.strs, strs)
	for i, s := range strs {
		if _, ok := p.index[s]; !ok {
			p.index[s] = uint32(i)
		}
	}
	return p
}

// Intern returns the id of s, appending it if it is not yet present
func (p *Pool) Intern(s string) (uint32, error) {
	if id, ok := p.index[s]; ok {
		return id, nil
	}
	if len(s) > binfmt.MaxStringLen {
		return 0, fmt.Errorf("string of %d bytes exceeds limit of %d", len(s), binfmt.MaxStringLen)
	}
	id := uint32(len(p.strs))
	p.strs = append(p.strs, s)
	p.index[s] = id
	return id, nil
}

// Peek looks s up without adding it
func (p *Pool) Peek(s string) (uint32, bool) {
	id, ok := p.index[s]
	return id, ok
}

// Resolve returns the string with the given id
func (p *Pool) Resolve(id uint32) (string, bool) {
	if int(id) >= len(p.strs) {
		return "", false
	}
	return p.strs[id], true
}

// Len returns the number of strings in the pool
func (p *Pool) Len() int {
	return len(p.strs)
}

// Strings returns the pool contents in id order. The slice must not be modified.
func (p *Pool) Strings() []string {
	return p.strs
}
