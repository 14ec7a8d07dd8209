// Package objmap builds an address-indexed instruction map from a
// disassembly listing. The map answers the two questions trace capture
// needs about a program: where the instruction after a given address
// lives, and whether a mnemonic is a conditional branch.
package objmap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNoInstructions reports a listing holding no parseable instruction
// lines, usually a disassembler invocation gone wrong.
var ErrNoInstructions = errors.New("no instructions in listing")

// LineReader is the line-oriented source a listing is read from. Lines
// keep their terminator; an empty string marks exhausted input.
type LineReader interface {
	ReadLine() (string, error)
}

// Instruction is one decoded listing line. Size is the distance to the
// next listed address; for the final instruction it falls back to the
// encoded byte count.
type Instruction struct {
	Address  uint32
	Size     uint32
	Mnemonic string
}

// Map indexes a program's instructions by address.
type Map struct {
	addrs    []uint32
	insns    map[uint32]Instruction
	branches map[string]struct{}
}

// Read consumes a disassembly listing into a Map. branches is the
// target's conditional branch mnemonic set. Lines that are not
// instruction lines (symbol headers, section banners, blank lines) are
// skipped.
func Read(src LineReader, branches []string) (*Map, error) {
	m := &Map{
		insns:    make(map[uint32]Instruction),
		branches: make(map[string]struct{}, len(branches)),
	}
	for _, b := range branches {
		m.branches[b] = struct{}{}
	}

	for {
		line, err := src.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("listing read: %w", err)
		}
		if line == "" {
			break
		}
		addr, count, mnemonic, ok := parseListingLine(line)
		if !ok {
			continue
		}
		if _, dup := m.insns[addr]; !dup {
			m.addrs = append(m.addrs, addr)
		}
		m.insns[addr] = Instruction{Address: addr, Size: count, Mnemonic: mnemonic}
	}

	if len(m.addrs) == 0 {
		return nil, ErrNoInstructions
	}

	sort.Slice(m.addrs, func(i, j int) bool { return m.addrs[i] < m.addrs[j] })

	// Rewrite sizes as gaps between listed addresses. The last
	// instruction keeps its encoded byte count.
	for i := 0; i < len(m.addrs)-1; i++ {
		insn := m.insns[m.addrs[i]]
		insn.Size = m.addrs[i+1] - m.addrs[i]
		m.insns[m.addrs[i]] = insn
	}

	return m, nil
}

// Lookup returns the instruction at addr.
func (m *Map) Lookup(addr uint32) (Instruction, bool) {
	insn, ok := m.insns[addr]
	return insn, ok
}

// Len returns the number of mapped instructions.
func (m *Map) Len() int {
	return len(m.addrs)
}

// AddressAfter returns the fall-through address of the instruction at
// addr, or 0 when addr is not in the map.
func (m *Map) AddressAfter(addr uint32) uint32 {
	insn, ok := m.insns[addr]
	if !ok {
		return 0
	}
	return addr + insn.Size
}

// IsBranch reports whether mnemonic is in the target's conditional
// branch set.
func (m *Map) IsBranch(mnemonic string) bool {
	_, ok := m.branches[mnemonic]
	return ok
}

// parseListingLine decodes one instruction line of the form
//
//	"    1004:\te3500000 \tcmp\tr0, #0"
//
// returning the address, the encoded byte count, and the mnemonic.
// The disassembler separates the address, opcode bytes, and text with
// tabs; opcode bytes are space-separated hex groups.
func parseListingLine(line string) (addr uint32, count uint32, mnemonic string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	colon := strings.IndexByte(trimmed, ':')
	if colon <= 0 {
		return 0, 0, "", false
	}
	a, err := strconv.ParseUint(trimmed[:colon], 16, 32)
	if err != nil {
		return 0, 0, "", false
	}

	fields := strings.Split(trimmed[colon+1:], "\t")
	if len(fields) < 3 || fields[0] != "" {
		return 0, 0, "", false
	}

	n := encodedBytes(fields[1])
	if n == 0 {
		return 0, 0, "", false
	}

	text := strings.Fields(strings.Join(fields[2:], " "))
	if len(text) == 0 {
		return 0, 0, "", false
	}

	return uint32(a), n, text[0], true
}

// encodedBytes counts the opcode bytes in a listing's hex-group field,
// e.g. "e3500000 " is 4, "cd 80" is 2.
func encodedBytes(field string) uint32 {
	var n int
	for _, group := range strings.Fields(field) {
		if len(group)%2 != 0 {
			return 0
		}
		if _, err := strconv.ParseUint(group, 16, 64); err != nil {
			return 0
		}
		n += len(group) / 2
	}
	return uint32(n)
}
