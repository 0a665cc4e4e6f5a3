package vm

import (
	"errors"
	"fmt"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/vars"
)

// ErrorType classifies a runtime error.
type ErrorType string

const (
	// Fatal errors - the engine stops
	ErrorTooManyNestedScripts   ErrorType = "TOO_MANY_NESTED_SCRIPTS"
	ErrorTooManyNestedCutscenes ErrorType = "TOO_MANY_NESTED_CUTSCENES"
	ErrorOutOfMemory            ErrorType = "OUT_OF_MEMORY"

	// Script-scoped errors - the faulting instance dies, everything else continues
	ErrorStackCorruption       ErrorType = "STACK_CORRUPTION"
	ErrorMalformedOpcode       ErrorType = "MALFORMED_OPCODE"
	ErrorIllegalVariableAccess ErrorType = "ILLEGAL_VARIABLE_ACCESS"
	ErrorObjectOutOfRange      ErrorType = "OBJECT_OUT_OF_RANGE"
	ErrorResourceOutOfRange    ErrorType = "RESOURCE_OUT_OF_RANGE"
	ErrorTooManyScripts        ErrorType = "TOO_MANY_SCRIPTS"
)

// Sentinel causes wrapped by RuntimeError.
var (
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrArityMismatch   = errors.New("stack depth does not match opcode arity")
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrUnknownSubOp    = errors.New("unknown sub-opcode")
	ErrCodeOverrun     = errors.New("program counter outside script")
	ErrDivideByZero    = errors.New("division by zero")
	ErrBadArray        = errors.New("invalid array reference")
	ErrNoFreeSlot      = errors.New("no free script slot")
	ErrNestingTooDeep  = errors.New("nesting too deep")
	ErrCutsceneTooDeep = errors.New("cutscene nesting too deep")
	ErrNoCode          = errors.New("script has no code")
)

// RuntimeError is an error raised while executing bytecode. Script and PC
// identify the instance; Opcode is -1 outside opcode dispatch.
type RuntimeError struct {
	Type   ErrorType
	Script int
	PC     int
	Opcode int
	Err    error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Opcode >= 0 {
		return fmt.Sprintf("[%s] script %d pc 0x%04x opcode 0x%02x: %v", e.Type, e.Script, e.PC, e.Opcode, e.Err)
	}
	return fmt.Sprintf("[%s] script %d pc 0x%04x: %v", e.Type, e.Script, e.PC, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// IsFatal reports whether the error stops the whole engine rather than one script.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorTooManyNestedScripts, ErrorTooManyNestedCutscenes, ErrorOutOfMemory:
		return true
	default:
		return false
	}
}

// classify maps a cause to its error type.
func classify(err error) ErrorType {
	switch {
	case errors.Is(err, resource.ErrOutOfMemory):
		return ErrorOutOfMemory
	case errors.Is(err, ErrNestingTooDeep):
		return ErrorTooManyNestedScripts
	case errors.Is(err, ErrCutsceneTooDeep):
		return ErrorTooManyNestedCutscenes
	case errors.Is(err, ErrNoFreeSlot):
		return ErrorTooManyScripts
	case errors.Is(err, ErrStackUnderflow), errors.Is(err, ErrStackOverflow), errors.Is(err, ErrArityMismatch):
		return ErrorStackCorruption
	case errors.Is(err, vars.ErrIllegalVariableAccess):
		return ErrorIllegalVariableAccess
	case errors.Is(err, vars.ErrObjectOutOfRange), errors.Is(err, actor.ErrActorOutOfRange):
		return ErrorObjectOutOfRange
	case errors.Is(err, resource.ErrOutOfRange), errors.Is(err, resource.ErrNoSource),
		errors.Is(err, resource.ErrBadChunk), errors.Is(err, ErrBadArray), errors.Is(err, ErrNoCode):
		return ErrorResourceOutOfRange
	default:
		return ErrorMalformedOpcode
	}
}

// NewRuntimeError wraps err with the instance position it occurred at.
func NewRuntimeError(err error, script, pc, op int) *RuntimeError {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	return &RuntimeError{Type: classify(err), Script: script, PC: pc, Opcode: op, Err: err}
}
