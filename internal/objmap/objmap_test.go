package objmap

import (
	"errors"
	"strings"
	"testing"
)

// sliceReader feeds canned listing text line by line, mimicking the
// buffered capture reader's contract: lines keep their terminator and an
// empty string marks the end.
type sliceReader struct {
	lines []string
	next  int
}

func listingSource(text string) *sliceReader {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &sliceReader{lines: lines}
}

func (r *sliceReader) ReadLine() (string, error) {
	if r.next >= len(r.lines) {
		return "", nil
	}
	line := r.lines[r.next]
	r.next++
	return line, nil
}

const armListing = "" +
	"build/hello.exe:     file format elf32-littlearm\n" +
	"\n" +
	"Disassembly of section .text:\n" +
	"\n" +
	"00001000 <main>:\n" +
	"    1000:\te59f0010 \tldr\tr0, [pc, #16]\n" +
	"    1004:\te3500000 \tcmp\tr0, #0\n" +
	"    1008:\t0a000001 \tbeq\t1014 <main+0x14>\n" +
	"    100c:\te1a00001 \tmov\tr0, r1\n" +
	"    1010:\te12fff1e \tbx\tlr\n"

func TestReadDerivesSizesFromGaps(t *testing.T) {
	m, err := Read(listingSource(armListing), []string{"beq", "bne"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if m.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", m.Len())
	}

	testCases := []struct {
		name string
		addr uint32
		want uint32
	}{
		{name: "first", addr: 0x1000, want: 0x1004},
		{name: "middle", addr: 0x1004, want: 0x1008},
		{name: "last_uses_encoded_bytes", addr: 0x1010, want: 0x1014},
		{name: "unknown", addr: 0xdead, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.AddressAfter(tc.addr); got != tc.want {
				t.Errorf("AddressAfter(%#x) = %#x, want %#x", tc.addr, got, tc.want)
			}
		})
	}
}

func TestReadVariableWidthOpcodes(t *testing.T) {
	listing := "" +
		"08048060 <_start>:\n" +
		" 8048060:\tb8 01 00 00 00       \tmov    $0x1,%eax\n" +
		" 8048065:\tcd 80                \tint    $0x80\n"

	m, err := Read(listingSource(listing), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got := m.AddressAfter(0x8048060); got != 0x8048065 {
		t.Errorf("AddressAfter(first) = %#x, want 0x8048065", got)
	}
	// Final instruction: two encoded bytes.
	if got := m.AddressAfter(0x8048065); got != 0x8048067 {
		t.Errorf("AddressAfter(last) = %#x, want 0x8048067", got)
	}
}

func TestReadSpansListingGaps(t *testing.T) {
	// A literal pool between 0x1004 and 0x1010 folds into the size of the
	// instruction before it, same as the fall-through distance.
	listing := "" +
		"    1000:\te3500000 \tcmp\tr0, #0\n" +
		"    1004:\te59f0010 \tldr\tr0, [pc, #16]\n" +
		"    1010:\te12fff1e \tbx\tlr\n"

	m, err := Read(listingSource(listing), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got := m.AddressAfter(0x1004); got != 0x1010 {
		t.Errorf("AddressAfter(0x1004) = %#x, want 0x1010", got)
	}
}

func TestIsBranch(t *testing.T) {
	m, err := Read(listingSource(armListing), []string{"beq", "bne", "blt"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	for mnemonic, want := range map[string]bool{
		"beq": true,
		"blt": true,
		"mov": false,
		"b":   false,
		"":    false,
	} {
		if got := m.IsBranch(mnemonic); got != want {
			t.Errorf("IsBranch(%q) = %v, want %v", mnemonic, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	m, err := Read(listingSource(armListing), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	insn, ok := m.Lookup(0x1008)
	if !ok {
		t.Fatal("Lookup(0x1008) not found")
	}
	if insn.Mnemonic != "beq" {
		t.Errorf("Mnemonic = %q, want \"beq\"", insn.Mnemonic)
	}
	if insn.Size != 4 {
		t.Errorf("Size = %d, want 4", insn.Size)
	}

	if _, ok := m.Lookup(0x1002); ok {
		t.Error("Lookup(0x1002) found an instruction mid-opcode")
	}
}

func TestReadRejectsEmptyListing(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "banners_only", text: "Disassembly of section .text:\n\n00001000 <main>:\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Read(listingSource(tc.text), nil); !errors.Is(err, ErrNoInstructions) {
				t.Errorf("Read() error = %v, want ErrNoInstructions", err)
			}
		})
	}
}

func TestParseListingLine(t *testing.T) {
	testCases := []struct {
		name         string
		line         string
		wantAddr     uint32
		wantCount    uint32
		wantMnemonic string
		wantOK       bool
	}{
		{
			name:         "arm_word",
			line:         "    1000:\te59f0010 \tldr\tr0, [pc, #16]\n",
			wantAddr:     0x1000,
			wantCount:    4,
			wantMnemonic: "ldr",
			wantOK:       true,
		},
		{
			name:         "byte_groups",
			line:         " 8048065:\tcd 80                \tint    $0x80\n",
			wantAddr:     0x8048065,
			wantCount:    2,
			wantMnemonic: "int",
			wantOK:       true,
		},
		{
			name:         "data_word",
			line:         "    1014:\t00000400 \t.word\t0x00000400\n",
			wantAddr:     0x1014,
			wantCount:    4,
			wantMnemonic: ".word",
			wantOK:       true,
		},
		{name: "symbol_header", line: "00001000 <main>:\n"},
		{name: "section_banner", line: "Disassembly of section .text:\n"},
		{name: "file_format", line: "build/hello.exe:     file format elf32-littlearm\n"},
		{name: "continuation_bytes", line: " 804807c:\t00 00 00 \n"},
		{name: "blank", line: "\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, count, mnemonic, ok := parseListingLine(tc.line)
			if ok != tc.wantOK {
				t.Fatalf("parseListingLine(%q) ok = %v, want %v", tc.line, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if addr != tc.wantAddr {
				t.Errorf("addr = %#x, want %#x", addr, tc.wantAddr)
			}
			if count != tc.wantCount {
				t.Errorf("count = %d, want %d", count, tc.wantCount)
			}
			if mnemonic != tc.wantMnemonic {
				t.Errorf("mnemonic = %q, want %q", mnemonic, tc.wantMnemonic)
			}
		})
	}
}
