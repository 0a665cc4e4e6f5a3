package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/vars"
)

func TestNewRuntimeError_Classifies(t *testing.T) {
	tests := []struct {
		err   error
		want  ErrorType
		fatal bool
	}{
		{ErrStackUnderflow, ErrorStackCorruption, false},
		{ErrArityMismatch, ErrorStackCorruption, false},
		{fmt.Errorf("wrapped: %w", vars.ErrIllegalVariableAccess), ErrorIllegalVariableAccess, false},
		{vars.ErrObjectOutOfRange, ErrorObjectOutOfRange, false},
		{resource.ErrOutOfRange, ErrorResourceOutOfRange, false},
		{ErrBadArray, ErrorResourceOutOfRange, false},
		{ErrNoFreeSlot, ErrorTooManyScripts, false},
		{ErrUnknownOpcode, ErrorMalformedOpcode, false},
		{ErrNestingTooDeep, ErrorTooManyNestedScripts, true},
		{ErrCutsceneTooDeep, ErrorTooManyNestedCutscenes, true},
		{resource.ErrOutOfMemory, ErrorOutOfMemory, true},
	}
	for _, tt := range tests {
		re := NewRuntimeError(tt.err, 3, 0x10, 0x5E)
		if re.Type != tt.want {
			t.Errorf("%v: type %s, want %s", tt.err, re.Type, tt.want)
		}
		if re.IsFatal() != tt.fatal {
			t.Errorf("%v: IsFatal() = %v, want %v", tt.err, re.IsFatal(), tt.fatal)
		}
		if !errors.Is(re, tt.err) {
			t.Errorf("%v: cause lost", tt.err)
		}
	}
}

func TestNewRuntimeError_KeepsFirstPosition(t *testing.T) {
	inner := NewRuntimeError(ErrStackUnderflow, 1, 2, 3)
	outer := NewRuntimeError(fmt.Errorf("again: %w", inner), 9, 9, 9)
	if outer != inner {
		t.Errorf("rewrapped error = %+v, want the original", outer)
	}
}

func TestRuntimeError_Message(t *testing.T) {
	re := NewRuntimeError(ErrUnknownOpcode, 12, 0x20, 0xF3)
	msg := re.Error()
	for _, want := range []string{"MALFORMED_OPCODE", "script 12", "0x0020", "0xf3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q lacks %q", msg, want)
		}
	}
	noOp := NewRuntimeError(ErrNoCode, 4, 0, -1)
	if strings.Contains(noOp.Error(), "opcode") {
		t.Errorf("message without opcode mentions one: %q", noOp.Error())
	}
}
