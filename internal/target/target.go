// Package target carries the per-architecture parameters trace capture
// depends on: the operation bits encoding branch direction and the
// conditional branch mnemonic set used to classify block exits. Built-in
// definitions cover the common simulator targets; a YAML file can add or
// override definitions.
package target

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTarget reports a lookup for a name no definition covers.
var ErrUnknownTarget = errors.New("unknown target")

// Definition is one architecture's capture parameters.
type Definition struct {
	Name        string
	Width       int
	TakenBit    uint8
	NotTakenBit uint8
	Branches    []string
}

// Table holds target definitions by name.
type Table struct {
	defs map[string]Definition
}

// Builtin returns a table preloaded with the stock targets.
func Builtin() *Table {
	t := &Table{defs: make(map[string]Definition, len(builtins))}
	for _, def := range builtins {
		t.defs[def.Name] = def
	}
	return t
}

// Lookup returns the definition registered under name.
func (t *Table) Lookup(name string) (Definition, error) {
	def, ok := t.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("target %q: %w", name, ErrUnknownTarget)
	}
	return def, nil
}

// Names returns the registered target names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.defs))
	for name := range t.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validate checks a definition before it enters the table.
func validate(def Definition) error {
	var errs []error

	if def.Name == "" {
		errs = append(errs, errors.New("target name must not be empty"))
	}
	if def.Width != 32 {
		errs = append(errs, fmt.Errorf("target %q: width must be 32, got %d", def.Name, def.Width))
	}
	if !singleBit(def.TakenBit) {
		errs = append(errs, fmt.Errorf("target %q: taken bit %#02x is not a single bit", def.Name, def.TakenBit))
	}
	if !singleBit(def.NotTakenBit) {
		errs = append(errs, fmt.Errorf("target %q: not-taken bit %#02x is not a single bit", def.Name, def.NotTakenBit))
	}
	if def.TakenBit == def.NotTakenBit {
		errs = append(errs, fmt.Errorf("target %q: taken and not-taken bits collide", def.Name))
	}
	if len(def.Branches) == 0 {
		errs = append(errs, fmt.Errorf("target %q: branch mnemonic set must not be empty", def.Name))
	}
	for _, b := range def.Branches {
		if b == "" {
			errs = append(errs, fmt.Errorf("target %q: empty branch mnemonic", def.Name))
			break
		}
	}

	return errors.Join(errs...)
}

func singleBit(b uint8) bool {
	return b != 0 && b&(b-1) == 0
}

// Stock operation bits. Bit 0 marks a taken branch, bit 1 a not-taken
// one; the trace writer ORs them into the block operation byte.
const (
	takenBit    = 0x01
	notTakenBit = 0x02
)

var builtins = []Definition{
	{
		Name:        "sparc",
		Width:       32,
		TakenBit:    takenBit,
		NotTakenBit: notTakenBit,
		Branches: annulled("bn", "be", "ble", "bl", "bleu", "bcs", "bneg",
			"bvs", "bne", "bg", "bge", "bgu", "bcc", "bpos", "bvc"),
	},
	{
		Name:        "arm",
		Width:       32,
		TakenBit:    takenBit,
		NotTakenBit: notTakenBit,
		Branches: []string{
			"beq", "bne", "bcs", "bhs", "bcc", "blo", "bmi", "bpl",
			"bvs", "bvc", "bhi", "bls", "bge", "blt", "bgt", "ble",
			"cbz", "cbnz",
		},
	},
	{
		Name:        "i386",
		Width:       32,
		TakenBit:    takenBit,
		NotTakenBit: notTakenBit,
		Branches: []string{
			"ja", "jae", "jb", "jbe", "jc", "je", "jg", "jge", "jl",
			"jle", "jna", "jnae", "jnb", "jnbe", "jnc", "jne", "jng",
			"jnge", "jnl", "jnle", "jno", "jnp", "jns", "jnz", "jo",
			"jp", "jpe", "jpo", "js", "jz", "jcxz", "jecxz",
		},
	},
	{
		Name:        "riscv",
		Width:       32,
		TakenBit:    takenBit,
		NotTakenBit: notTakenBit,
		Branches: []string{
			"beq", "bne", "blt", "bge", "bltu", "bgeu",
			"beqz", "bnez", "blez", "bgez", "bltz", "bgtz",
			"c.beqz", "c.bnez",
		},
	},
}

// annulled expands a SPARC mnemonic list with the ",a" annul-delay-slot
// spellings the disassembler emits.
func annulled(mnemonics ...string) []string {
	out := make([]string, 0, 2*len(mnemonics))
	for _, m := range mnemonics {
		out = append(out, m, m+",a")
	}
	return out
}
