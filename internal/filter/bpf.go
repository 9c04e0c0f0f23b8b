// Package filter selects frames with classic BPF programs before decoding.
package filter

import (
	"fmt"
	"strings"

	"golang.org/x/net/bpf"

	"firestige.xyz/ethframe/internal/core"
)

const acceptLen = 262144

// Options selects frames by their outer tag.
type Options struct {
	TaggedOnly bool // accept only frames whose outer EtherType is a known TPID
	VLANID     int  // outer VLAN ID to match, -1 = any; implies TaggedOnly
}

// Enabled reports whether the options select anything.
func (o Options) Enabled() bool {
	return o.TaggedOnly || o.VLANID >= 0
}

// Filter runs an assembled BPF program against raw frames.
// A nil *Filter accepts everything.
type Filter struct {
	program []bpf.Instruction
	raw     []bpf.RawInstruction
	vm      *bpf.VM
}

// New builds a filter. It returns nil when opts select nothing.
func New(opts Options) (*Filter, error) {
	if !opts.Enabled() {
		return nil, nil
	}
	if opts.VLANID > 0xfff {
		return nil, fmt.Errorf("%w: vlan id %d out of range", core.ErrConfigInvalid, opts.VLANID)
	}

	program := buildProgram(opts)

	raw, err := bpf.Assemble(program)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble BPF filter: %w", err)
	}
	vm, err := bpf.NewVM(program)
	if err != nil {
		return nil, fmt.Errorf("failed to load BPF filter: %w", err)
	}

	return &Filter{program: program, raw: raw, vm: vm}, nil
}

// buildProgram emits:
//
//	ldh [12]; match one of the TPIDs or reject
//	ldh [14]; and #0xfff; jne #vid reject   (only with a VLAN ID)
//	ret #accept; ret #0
func buildProgram(opts Options) []bpf.Instruction {
	var tail []bpf.Instruction
	if opts.VLANID >= 0 {
		tail = append(tail,
			bpf.LoadAbsolute{Off: 14, Size: 2},
			bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: 0x0fff},
			bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(opts.VLANID), SkipTrue: 1},
		)
	}
	tail = append(tail,
		bpf.RetConstant{Val: acceptLen},
		bpf.RetConstant{Val: 0},
	)

	// Skip from the last TPID test to the final reject.
	toReject := uint8(len(tail) - 1)

	program := []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(core.TPID8021Q), SkipTrue: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(core.TPID8021AD), SkipTrue: 1},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(core.TPIDQinQ), SkipTrue: toReject},
	}
	return append(program, tail...)
}

// Match reports whether the frame passes the filter. Frames too short for
// the inspected offsets are rejected.
func (f *Filter) Match(data []byte) bool {
	if f == nil {
		return true
	}
	n, err := f.vm.Run(data)
	return err == nil && n > 0
}

// Raw returns the assembled program, e.g. for attaching to a socket.
func (f *Filter) Raw() []bpf.RawInstruction {
	if f == nil {
		return nil
	}
	return f.raw
}

// String renders the program one instruction per line.
func (f *Filter) String() string {
	if f == nil {
		return "<accept all>"
	}
	var sb strings.Builder
	for i, ins := range f.program {
		fmt.Fprintf(&sb, "%03d: %v\n", i, ins)
	}
	return sb.String()
}
