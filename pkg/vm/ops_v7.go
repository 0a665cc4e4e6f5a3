package vm

import "github.com/zurustar/sputm/pkg/opcode"

var v7Table Table

// V7 runs V6 bytecode with a larger slot table and a wider cursor command.
func init() {
	bindV6(&v7Table)
	v7Table.patch(opcode.V6CursorCommand, OpEntry{Name: "cursorCommand", Fn: opCursorCommandV7, Var: true})
}
