package vm

import (
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/text"
)

var v8Table Table

// V8 renumbers the stack handlers and drops the byte-sized variants; its
// immediates and variable words are 32 bits wide.
func init() {
	t := &v8Table
	t.bind(opcode.V8PushWord, "pushWord", opPushWord, 0, 1)
	t.bind(opcode.V8PushWordVar, "pushWordVar", opPushWordVar, 0, 1)
	t.bind(opcode.V8WordArrayRead, "wordArrayRead", opWordArrayRead, 1, 1)
	t.bind(opcode.V8WordArrayIndexedRead, "wordArrayIndexedRead", opWordArrayIndexedRead, 2, 1)
	t.bind(opcode.V8Dup, "dup", opDup, 1, 2)
	t.bind(opcode.V8Pop, "pop", opPop, 1, 0)
	t.bind(opcode.V8Not, "not", opNot, 1, 1)
	t.bind(opcode.V8Eq, "eq", opEq, 2, 1)
	t.bind(opcode.V8Neq, "neq", opNeq, 2, 1)
	t.bind(opcode.V8Gt, "gt", opGt, 2, 1)
	t.bind(opcode.V8Lt, "lt", opLt, 2, 1)
	t.bind(opcode.V8Le, "le", opLe, 2, 1)
	t.bind(opcode.V8Ge, "ge", opGe, 2, 1)
	t.bind(opcode.V8Add, "add", opAdd, 2, 1)
	t.bind(opcode.V8Sub, "sub", opSub, 2, 1)
	t.bind(opcode.V8Mul, "mul", opMul, 2, 1)
	t.bind(opcode.V8Div, "div", opDiv, 2, 1)
	t.bind(opcode.V8Land, "land", opLand, 2, 1)
	t.bind(opcode.V8Lor, "lor", opLor, 2, 1)
	t.bind(opcode.V8Band, "band", opBand, 2, 1)
	t.bind(opcode.V8Bor, "bor", opBor, 2, 1)
	t.bind(opcode.V8Mod, "mod", opMod, 2, 1)
	t.bind(opcode.V8Abs, "abs", opAbs, 1, 1)

	t.bind(opcode.V8If, "if", opIf, 1, 0)
	t.bind(opcode.V8IfNot, "ifNot", opIfNot, 1, 0)
	t.bind(opcode.V8Jump, "jump", opJump, 0, 0)
	t.bind(opcode.V8BreakHere, "breakHere", opBreakHere, 0, 0)
	t.bind(opcode.V8DelayFrames, "delayFrames", opDelayFrames, 1, 0)
	t.bindVar(opcode.V8Wait, "wait", opWait)
	t.bind(opcode.V8Delay, "delay", opDelay, 1, 0)
	t.bind(opcode.V8DelaySeconds, "delaySeconds", opDelaySeconds, 1, 0)
	t.bind(opcode.V8DelayMinutes, "delayMinutes", opDelayMinutes, 1, 0)

	t.bind(opcode.V8WriteWordVar, "writeWordVar", opWriteWordVar, 1, 0)
	t.bind(opcode.V8WordVarInc, "wordVarInc", varAdder(true, 1), 0, 0)
	t.bind(opcode.V8WordVarDec, "wordVarDec", varAdder(true, -1), 0, 0)
	t.bindVar(opcode.V8DimArray, "dimArray", opDimArray)
	t.bind(opcode.V8WordArrayWrite, "wordArrayWrite", opWordArrayWrite, 2, 0)
	t.bind(opcode.V8WordArrayInc, "wordArrayInc", arrayAdder(true, 1), 1, 0)
	t.bind(opcode.V8WordArrayDec, "wordArrayDec", arrayAdder(true, -1), 1, 0)
	t.bindVar(opcode.V8Dim2DimArray, "dim2DimArray", opDim2DimArray)
	t.bind(opcode.V8WordArrayIndexedWrite, "wordArrayIndexedWrite", opWordArrayIndexedWrite, 3, 0)
	t.bindVar(opcode.V8ArrayOps, "arrayOps", opArrayOps)

	t.bindVar(opcode.V8StartScript, "startScript", opStartScript)
	t.bindVar(opcode.V8StartScriptQuick, "startScriptQuick", opStartScriptQuick)
	t.bind(opcode.V8StopObjectCode, "stopObjectCode", opStopObjectCode, 0, 0)
	t.bind(opcode.V8StopScript, "stopScript", opStopScript, 1, 0)
	t.bindVar(opcode.V8JumpToScript, "jumpToScript", opJumpToScript)
	t.bind(opcode.V8Return, "return", opStopObjectCode, 0, 0)
	t.bindVar(opcode.V8StartObject, "startObject", opStartObject)
	t.bind(opcode.V8StopObjectScript, "stopObjectScript", opStopObjectScript, 1, 0)
	t.bindVar(opcode.V8Cutscene, "cutscene", opCutscene)
	t.bind(opcode.V8EndCutscene, "endCutscene", opEndCutscene, 0, 0)
	t.bind(opcode.V8FreezeUnfreeze, "freezeUnfreeze", opFreezeUnfreeze, 1, 0)
	t.bind(opcode.V8BeginOverride, "beginOverride", opBeginOverride, 0, 0)
	t.bind(opcode.V8EndOverride, "endOverride", opEndOverride, 0, 0)
	t.bind(opcode.V8StopSentence, "stopSentence", opStopSentence, 0, 0)
	t.bindVar(opcode.V8StartScriptQuick2, "startScriptQuick2", opStartScriptQuick2)
	t.bindVar(opcode.V8StartObjectQuick, "startObjectQuick", opStartObjectQuick)
	t.bind(opcode.V8IsScriptRunning, "isScriptRunning", opIsScriptRunning, 1, 1)

	t.bindVar(opcode.V8SetClass, "setClass", opSetClass)
	t.bind(opcode.V8SetState, "setState", opSetState, 2, 0)
	t.bind(opcode.V8SetOwner, "setOwner", opSetOwner, 2, 0)
	t.bindVar(opcode.V8IfClassOfIs, "ifClassOfIs", opIfClassOfIs)
	t.bind(opcode.V8GetState, "getState", opGetState, 1, 1)
	t.bind(opcode.V8GetOwner, "getOwner", opGetOwner, 1, 1)
	t.bind(opcode.V8PickupObject, "pickupObject", opPickupObject, 2, 0)
	t.bind(opcode.V8DoSentence, "doSentence", opDoSentence, 4, 0)
	t.bind(opcode.V8GetVerbEntrypoint, "getVerbEntrypoint", opGetVerbEntrypoint, 2, 1)
	t.bind(opcode.V8FindObject, "findObject", opFindObject, 2, 1)
	t.bind(opcode.V8FindInventory, "findInventory", opFindInventory, 2, 1)
	t.bind(opcode.V8GetInventoryCount, "getInventoryCount", opGetInventoryCount, 1, 1)
	t.bind(opcode.V8GetObjectX, "getObjectX", opGetObjectX, 1, 1)
	t.bind(opcode.V8GetObjectY, "getObjectY", opGetObjectY, 1, 1)
	t.bind(opcode.V8DistObjectObject, "distObjectObject", opDistObjectObject, 2, 1)
	t.bind(opcode.V8DistPtPt, "distPtPt", opDistPtPt, 4, 1)

	t.bind(opcode.V8PanCameraTo, "panCameraTo", opPanCameraTo, 1, 0)
	t.bind(opcode.V8ActorFollowCamera, "actorFollowCamera", opActorFollowCamera, 1, 0)
	t.bind(opcode.V8SetCameraAt, "setCameraAt", opSetCameraAt, 1, 0)
	t.bindVar(opcode.V8CursorCommand, "cursorCommand", opCursorCommandV7)
	t.bind(opcode.V8LoadRoom, "loadRoom", opLoadRoom, 1, 0)
	t.bind(opcode.V8LoadRoomWithEgo, "loadRoomWithEgo", opLoadRoomWithEgo, 4, 0)
	t.bindVar(opcode.V8ResourceRoutines, "resourceRoutines", opResourceRoutines)
	t.bindVar(opcode.V8RoomOps, "roomOps", opRoomOps)
	t.bind(opcode.V8SystemOps, "systemOps", opSystemOps, 0, 0)

	t.bindVar(opcode.V8PrintActor, "printActor", printer(text.KindActor))
	t.bindVar(opcode.V8PrintEgo, "printEgo", opPrintEgo)
	t.bind(opcode.V8TalkActor, "talkActor", opTalkActor, 1, 0)
	t.bind(opcode.V8TalkEgo, "talkEgo", opTalkEgo, 0, 0)
	t.bindVar(opcode.V8PrintLine, "printLine", printer(text.KindLine))
	t.bindVar(opcode.V8PrintText, "printText", printer(text.KindText))
	t.bindVar(opcode.V8PrintDebug, "printDebug", printer(text.KindDebug))
	t.bindVar(opcode.V8PrintSystem, "printSystem", printer(text.KindSystem))

	t.bind(opcode.V8WalkActorToObj, "walkActorToObj", opWalkActorToObj, 3, 0)
	t.bind(opcode.V8WalkActorTo, "walkActorTo", opWalkActorTo, 3, 0)
	t.bind(opcode.V8PutActorAtXY, "putActorAtXY", opPutActorAtXY, 4, 0)
	t.bind(opcode.V8PutActorAtObject, "putActorAtObject", opPutActorAtObject, 3, 0)
	t.bind(opcode.V8FaceActor, "faceActor", opFaceActor, 2, 0)
	t.bind(opcode.V8AnimateActor, "animateActor", opAnimateActor, 2, 0)
	t.bindVar(opcode.V8ActorOps, "actorOps", opActorOps)
	t.bind(opcode.V8GetActorFromXY, "getActorFromXY", opGetActorFromXY, 2, 1)
	t.bind(opcode.V8GetAnimateVariable, "getAnimateVariable", opGetAnimateVariable, 2, 1)
	t.bind(opcode.V8GetActorRoom, "getActorRoom", opGetActorRoom, 1, 1)
	t.bind(opcode.V8GetActorMoving, "getActorMoving", opGetActorMoving, 1, 1)
	t.bind(opcode.V8GetActorCostume, "getActorCostume", opGetActorCostume, 1, 1)
	t.bind(opcode.V8GetActorScaleX, "getActorScaleX", opGetActorScaleX, 1, 1)
	t.bind(opcode.V8GetActorElevation, "getActorElevation", opGetActorElevation, 1, 1)
	t.bind(opcode.V8GetActorWidth, "getActorWidth", opGetActorWidth, 1, 1)

	t.bind(opcode.V8StartSound, "startSound", opStartSound, 1, 0)
	t.bind(opcode.V8StartMusic, "startMusic", opStartSound, 1, 0)
	t.bind(opcode.V8StopSound, "stopSound", opStopSound, 1, 0)
	t.bindVar(opcode.V8SoundKludge, "soundKludge", opSoundKludge)
	t.bind(opcode.V8IsSoundRunning, "isSoundRunning", opIsSoundRunning, 1, 1)

	t.bindVar(opcode.V8PickOneOf, "pickOneOf", opPickOneOf)
	t.bindVar(opcode.V8PickOneOfDefault, "pickOneOfDefault", opPickOneOfDefault)
	t.bindVar(opcode.V8IsAnyOf, "isAnyOf", opIsAnyOf)
	t.bind(opcode.V8GetRandomNumber, "getRandomNumber", opGetRandomNumber, 1, 1)
	t.bind(opcode.V8GetRandomNumberRange, "getRandomNumberRange", opGetRandomNumberRange, 2, 1)
}
