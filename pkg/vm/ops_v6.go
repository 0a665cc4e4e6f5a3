package vm

import (
	"fmt"

	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/text"
)

var v6Table Table

// bind registers a handler with a fixed stack arity.
func (t *Table) bind(op int, name string, fn func(*Machine), pops, pushes int) {
	if t[op].Fn != nil {
		panic(fmt.Sprintf("opcode 0x%02x bound twice: %s and %s", op, t[op].Name, name))
	}
	t[op] = OpEntry{Name: name, Fn: fn, Pops: pops, Pushes: pushes}
}

// bindVar registers a handler whose arity depends on its operands.
func (t *Table) bindVar(op int, name string, fn func(*Machine)) {
	t.bind(op, name, fn, 0, 0)
	t[op].Var = true
}

// patch replaces an entry of a copied table.
func (t *Table) patch(op int, e OpEntry) {
	t[op] = e
}

func init() { bindV6(&v6Table) }

// bindV6 fills t with the stack handlers at their V6 opcodes.
func bindV6(t *Table) {
	t.bind(opcode.V6PushByte, "pushByte", opPushByte, 0, 1)
	t.bind(opcode.V6PushWord, "pushWord", opPushWord, 0, 1)
	t.bind(opcode.V6PushByteVar, "pushByteVar", opPushByteVar, 0, 1)
	t.bind(opcode.V6PushWordVar, "pushWordVar", opPushWordVar, 0, 1)
	t.bind(opcode.V6ByteArrayRead, "byteArrayRead", opByteArrayRead, 1, 1)
	t.bind(opcode.V6WordArrayRead, "wordArrayRead", opWordArrayRead, 1, 1)
	t.bind(opcode.V6ByteArrayIndexedRead, "byteArrayIndexedRead", opByteArrayIndexedRead, 2, 1)
	t.bind(opcode.V6WordArrayIndexedRead, "wordArrayIndexedRead", opWordArrayIndexedRead, 2, 1)
	t.bind(opcode.V6Dup, "dup", opDup, 1, 2)
	t.bind(opcode.V6Not, "not", opNot, 1, 1)
	t.bind(opcode.V6Eq, "eq", opEq, 2, 1)
	t.bind(opcode.V6Neq, "neq", opNeq, 2, 1)
	t.bind(opcode.V6Gt, "gt", opGt, 2, 1)
	t.bind(opcode.V6Lt, "lt", opLt, 2, 1)
	t.bind(opcode.V6Le, "le", opLe, 2, 1)
	t.bind(opcode.V6Ge, "ge", opGe, 2, 1)
	t.bind(opcode.V6Add, "add", opAdd, 2, 1)
	t.bind(opcode.V6Sub, "sub", opSub, 2, 1)
	t.bind(opcode.V6Mul, "mul", opMul, 2, 1)
	t.bind(opcode.V6Div, "div", opDiv, 2, 1)
	t.bind(opcode.V6Land, "land", opLand, 2, 1)
	t.bind(opcode.V6Lor, "lor", opLor, 2, 1)
	t.bind(opcode.V6Band, "band", opBand, 2, 1)
	t.bind(opcode.V6Bor, "bor", opBor, 2, 1)
	t.bind(opcode.V6Abs, "abs", opAbs, 1, 1)
	t.bind(opcode.V6Pop, "pop", opPop, 1, 0)
	t.bind(opcode.V6PopAlt, "pop", opPop, 1, 0)

	t.bind(opcode.V6WriteByteVar, "writeByteVar", opWriteByteVar, 1, 0)
	t.bind(opcode.V6WriteWordVar, "writeWordVar", opWriteWordVar, 1, 0)
	t.bind(opcode.V6ByteArrayWrite, "byteArrayWrite", opByteArrayWrite, 2, 0)
	t.bind(opcode.V6WordArrayWrite, "wordArrayWrite", opWordArrayWrite, 2, 0)
	t.bind(opcode.V6ByteArrayIndexedWrite, "byteArrayIndexedWrite", opByteArrayIndexedWrite, 3, 0)
	t.bind(opcode.V6WordArrayIndexedWrite, "wordArrayIndexedWrite", opWordArrayIndexedWrite, 3, 0)
	t.bind(opcode.V6ByteVarInc, "byteVarInc", varAdder(false, 1), 0, 0)
	t.bind(opcode.V6WordVarInc, "wordVarInc", varAdder(true, 1), 0, 0)
	t.bind(opcode.V6ByteVarDec, "byteVarDec", varAdder(false, -1), 0, 0)
	t.bind(opcode.V6WordVarDec, "wordVarDec", varAdder(true, -1), 0, 0)
	t.bind(opcode.V6ByteArrayInc, "byteArrayInc", arrayAdder(false, 1), 1, 0)
	t.bind(opcode.V6WordArrayInc, "wordArrayInc", arrayAdder(true, 1), 1, 0)
	t.bind(opcode.V6ByteArrayDec, "byteArrayDec", arrayAdder(false, -1), 1, 0)
	t.bind(opcode.V6WordArrayDec, "wordArrayDec", arrayAdder(true, -1), 1, 0)

	t.bind(opcode.V6If, "if", opIf, 1, 0)
	t.bind(opcode.V6IfNot, "ifNot", opIfNot, 1, 0)
	t.bind(opcode.V6Jump, "jump", opJump, 0, 0)
	t.bindVar(opcode.V6StartScript, "startScript", opStartScript)
	t.bindVar(opcode.V6StartScriptQuick, "startScriptQuick", opStartScriptQuick)
	t.bindVar(opcode.V6StartScriptQuick2, "startScriptQuick2", opStartScriptQuick2)
	t.bindVar(opcode.V6StartObject, "startObject", opStartObject)
	t.bindVar(opcode.V6StartObjectQuick, "startObjectQuick", opStartObjectQuick)
	t.bindVar(opcode.V6JumpToScript, "jumpToScript", opJumpToScript)
	t.bind(opcode.V6StopObjectCodeA, "stopObjectCode", opStopObjectCode, 0, 0)
	t.bind(opcode.V6StopObjectCodeB, "stopObjectCode", opStopObjectCode, 0, 0)
	t.bind(opcode.V6BreakHere, "breakHere", opBreakHere, 0, 0)
	t.bind(opcode.V6StopScript, "stopScript", opStopScript, 1, 0)
	t.bind(opcode.V6StopObjectScript, "stopObjectScript", opStopObjectScript, 1, 0)
	t.bind(opcode.V6IsScriptRunning, "isScriptRunning", opIsScriptRunning, 1, 1)
	t.bind(opcode.V6IsRoomScriptRunning, "isRoomScriptRunning", opIsRoomScriptRunning, 1, 1)
	t.bind(opcode.V6FreezeUnfreeze, "freezeUnfreeze", opFreezeUnfreeze, 1, 0)
	t.bind(opcode.V6Delay, "delay", opDelay, 1, 0)
	t.bind(opcode.V6DelaySeconds, "delaySeconds", opDelaySeconds, 1, 0)
	t.bind(opcode.V6DelayMinutes, "delayMinutes", opDelayMinutes, 1, 0)
	t.bind(opcode.V6DelayFrames, "delayFrames", opDelayFrames, 1, 0)
	t.bindVar(opcode.V6Wait, "wait", opWait)

	t.bindVar(opcode.V6Cutscene, "cutscene", opCutscene)
	t.bind(opcode.V6EndCutscene, "endCutscene", opEndCutscene, 0, 0)
	t.bind(opcode.V6BeginOverride, "beginOverride", opBeginOverride, 0, 0)
	t.bind(opcode.V6EndOverride, "endOverride", opEndOverride, 0, 0)
	t.bindVar(opcode.V6CursorCommand, "cursorCommand", opCursorCommand)
	t.bind(opcode.V6SystemOps, "systemOps", opSystemOps, 0, 0)

	t.bindVar(opcode.V6IfClassOfIs, "ifClassOfIs", opIfClassOfIs)
	t.bindVar(opcode.V6SetClass, "setClass", opSetClass)
	t.bind(opcode.V6GetState, "getState", opGetState, 1, 1)
	t.bind(opcode.V6SetState, "setState", opSetState, 2, 0)
	t.bind(opcode.V6SetOwner, "setOwner", opSetOwner, 2, 0)
	t.bind(opcode.V6GetOwner, "getOwner", opGetOwner, 1, 1)
	t.bind(opcode.V6GetObjectX, "getObjectX", opGetObjectX, 1, 1)
	t.bind(opcode.V6GetObjectY, "getObjectY", opGetObjectY, 1, 1)
	t.bind(opcode.V6GetObjectOldDir, "getObjectOldDir", opGetObjectOldDir, 1, 1)
	t.bind(opcode.V6FindInventory, "findInventory", opFindInventory, 2, 1)
	t.bind(opcode.V6GetInventoryCount, "getInventoryCount", opGetInventoryCount, 1, 1)
	t.bind(opcode.V6SetObjectName, "setObjectName", opSetObjectName, 1, 0)
	t.bind(opcode.V6PickupObject, "pickupObject", opPickupObject, 2, 0)
	t.bind(opcode.V6FindObject, "findObject", opFindObject, 2, 1)
	t.bind(opcode.V6GetVerbEntrypoint, "getVerbEntrypoint", opGetVerbEntrypoint, 2, 1)
	t.bind(opcode.V6DistObjectObject, "distObjectObject", opDistObjectObject, 2, 1)
	t.bind(opcode.V6DistPtPt, "distPtPt", opDistPtPt, 4, 1)
	t.bind(opcode.V6FindAllObjects, "findAllObjects", opFindAllObjects, 1, 1)
	t.bind(opcode.V6DoSentence, "doSentence", opDoSentence, 4, 0)
	t.bind(opcode.V6StopSentence, "stopSentence", opStopSentence, 0, 0)

	t.bind(opcode.V6StartSound, "startSound", opStartSound, 1, 0)
	t.bind(opcode.V6StartMusic, "startMusic", opStartSound, 1, 0)
	t.bind(opcode.V6StopSound, "stopSound", opStopSound, 1, 0)
	t.bind(opcode.V6StopMusic, "stopMusic", opStopMusic, 0, 0)
	t.bind(opcode.V6IsSoundRunning, "isSoundRunning", opIsSoundRunning, 1, 1)

	t.bind(opcode.V6PanCameraTo, "panCameraTo", opPanCameraTo, 1, 0)
	t.bind(opcode.V6ActorFollowCamera, "actorFollowCamera", opActorFollowCamera, 1, 0)
	t.bind(opcode.V6SetCameraAt, "setCameraAt", opSetCameraAt, 1, 0)
	t.bind(opcode.V6LoadRoom, "loadRoom", opLoadRoom, 1, 0)
	t.bind(opcode.V6LoadRoomWithEgo, "loadRoomWithEgo", opLoadRoomWithEgo, 4, 0)
	t.bindVar(opcode.V6RoomOps, "roomOps", opRoomOps)
	t.bindVar(opcode.V6ResourceRoutines, "resourceRoutines", opResourceRoutines)

	t.bind(opcode.V6WalkActorToObj, "walkActorToObj", opWalkActorToObj, 3, 0)
	t.bind(opcode.V6WalkActorTo, "walkActorTo", opWalkActorTo, 3, 0)
	t.bind(opcode.V6PutActorAtXY, "putActorAtXY", opPutActorAtXY, 4, 0)
	t.bind(opcode.V6PutActorAtObject, "putActorAtObject", opPutActorAtObject, 3, 0)
	t.bind(opcode.V6FaceActor, "faceActor", opFaceActor, 2, 0)
	t.bind(opcode.V6AnimateActor, "animateActor", opAnimateActor, 2, 0)
	t.bind(opcode.V6GetActorMoving, "getActorMoving", opGetActorMoving, 1, 1)
	t.bind(opcode.V6GetActorRoom, "getActorRoom", opGetActorRoom, 1, 1)
	t.bind(opcode.V6GetActorCostume, "getActorCostume", opGetActorCostume, 1, 1)
	t.bind(opcode.V6GetActorFromXY, "getActorFromXY", opGetActorFromXY, 2, 1)
	t.bind(opcode.V6GetActorWidth, "getActorWidth", opGetActorWidth, 1, 1)
	t.bind(opcode.V6GetActorScaleX, "getActorScaleX", opGetActorScaleX, 1, 1)
	t.bind(opcode.V6GetActorAnimCounter, "getActorAnimCounter", opGetActorAnimCounter, 1, 1)
	t.bind(opcode.V6GetAnimateVariable, "getAnimateVariable", opGetAnimateVariable, 2, 1)
	t.bindVar(opcode.V6ActorOps, "actorOps", opActorOps)

	t.bindVar(opcode.V6PrintLine, "printLine", printer(text.KindLine))
	t.bindVar(opcode.V6PrintText, "printText", printer(text.KindText))
	t.bindVar(opcode.V6PrintDebug, "printDebug", printer(text.KindDebug))
	t.bindVar(opcode.V6PrintSystem, "printSystem", printer(text.KindSystem))
	t.bindVar(opcode.V6PrintActor, "printActor", printer(text.KindActor))
	t.bindVar(opcode.V6PrintEgo, "printEgo", opPrintEgo)
	t.bind(opcode.V6TalkActor, "talkActor", opTalkActor, 1, 0)
	t.bind(opcode.V6TalkEgo, "talkEgo", opTalkEgo, 0, 0)
	t.bind(opcode.V6StopTalking, "stopTalking", opStopTalking, 0, 0)

	t.bindVar(opcode.V6DimArray, "dimArray", opDimArray)
	t.bindVar(opcode.V6Dim2DimArray, "dim2DimArray", opDim2DimArray)
	t.bindVar(opcode.V6ArrayOps, "arrayOps", opArrayOps)
	t.bind(opcode.V6Shuffle, "shuffle", opShuffle, 2, 0)
	t.bindVar(opcode.V6IsAnyOf, "isAnyOf", opIsAnyOf)
	t.bindVar(opcode.V6PickOneOf, "pickOneOf", opPickOneOf)
	t.bindVar(opcode.V6PickOneOfDefault, "pickOneOfDefault", opPickOneOfDefault)
	t.bind(opcode.V6GetRandomNumber, "getRandomNumber", opGetRandomNumber, 1, 1)
	t.bind(opcode.V6GetRandomNumberRange, "getRandomNumberRange", opGetRandomNumberRange, 2, 1)
	t.bind(opcode.V6GetDateTime, "getDateTime", opGetDateTime, 0, 0)
	t.bindVar(opcode.V6KernelGetFunctions, "kernelGetFunctions", opKernelGetFunctions)
	t.bindVar(opcode.V6KernelSetFunctions, "kernelSetFunctions", opKernelSetFunctions)
}
