// Package opcode defines the opcode byte values of each bytecode dialect.
// The vm package binds handlers to these values; the Builder in this package
// assembles scripts from them for tools and tests.
package opcode

// V5 opcodes. Operand-encoded: bits 0x80, 0x40 and 0x20 of the opcode select
// whether the first, second and third parameter is a variable reference. Each
// constant below is the base form with every parameter bit clear.
const (
	V5StopObjectCode    = 0x00
	V5PutActor          = 0x01
	V5StartMusic        = 0x02
	V5GetActorRoom      = 0x03
	V5IsGreaterEqual    = 0x04
	V5GetActorElevation = 0x06
	V5SetState          = 0x07
	V5IsNotEqual        = 0x08
	V5FaceActor         = 0x09
	V5StartScript       = 0x0A
	V5GetVerbEntrypoint = 0x0B
	V5ResourceRoutines  = 0x0C
	V5WalkActorToActor  = 0x0D
	V5PutActorAtObject  = 0x0E
	V5GetObjectState    = 0x0F
	V5GetObjectOwner    = 0x10
	V5AnimateActor      = 0x11
	V5PanCameraTo       = 0x12
	V5ActorOps          = 0x13
	V5Print             = 0x14
	V5GetRandomNr       = 0x16
	V5And               = 0x17
	V5JumpRelative      = 0x18
	V5DoSentence        = 0x19
	V5Move              = 0x1A
	V5Multiply          = 0x1B
	V5StartSound        = 0x1C
	V5IfClassOfIs       = 0x1D
	V5WalkActorTo       = 0x1E
	V5StopMusic         = 0x20
	V5GetAnimCounter    = 0x22
	V5GetActorY         = 0x23
	V5LoadRoomWithEgo   = 0x24
	V5PickupObject      = 0x25
	V5SetVarRange       = 0x26
	V5EqualZero         = 0x28
	V5SetOwnerOf        = 0x29
	V5DelayVariable     = 0x2B
	V5CursorCommand     = 0x2C
	V5PutActorInRoom    = 0x2D
	V5Delay             = 0x2E
	V5IfNotState        = 0x2F
	V5GetInventoryCount = 0x31
	V5SetCameraAt       = 0x32
	V5RoomOps           = 0x33
	V5GetDist           = 0x34
	V5FindObject        = 0x35
	V5WalkActorToObject = 0x36
	V5StartObject       = 0x37
	V5IsLessEqual       = 0x38
	V5Subtract          = 0x3A
	V5StopSound         = 0x3C
	V5FindInventory     = 0x3D
	V5Cutscene          = 0x40
	V5ChainScript       = 0x42
	V5GetActorX         = 0x43
	V5IsLess            = 0x44
	V5Increment         = 0x46
	V5IsEqual           = 0x48
	V5SoundKludge       = 0x4C
	V5IfState           = 0x4F
	V5ActorFollowCamera = 0x52
	V5SetObjectName     = 0x54
	V5GetActorMoving    = 0x56
	V5Or                = 0x57
	V5Override          = 0x58
	V5Add               = 0x5A
	V5Divide            = 0x5B
	V5SetClass          = 0x5D
	V5FreezeScripts     = 0x60
	V5StopScript        = 0x62
	V5GetActorFacing    = 0x63
	V5IsScriptRunning   = 0x68
	V5GetActorWidth     = 0x6C
	V5StopObjectScript  = 0x6E
	V5GetActorCostume   = 0x71
	V5LoadRoom          = 0x72
	V5IsGreater         = 0x78
	V5IsSoundRunning    = 0x7C
	V5BreakHere         = 0x80
	V5SystemOps         = 0x98
	V5StopObjectCodeB   = 0xA0
	V5SetVarRangeWords  = 0xA6
	V5NotEqualZero      = 0xA8
	V5Expression        = 0xAC
	V5Wait              = 0xAE
	V5EndCutscene       = 0xC0
	V5Decrement         = 0xC6
	V5PrintEgo          = 0xD8
)

// Parameter bits of V5 opcodes.
const (
	Param1 = 0x80
	Param2 = 0x40
	Param3 = 0x20
)

// V5 expression sub-opcodes.
const (
	V5ExprValue    = 0x01
	V5ExprAdd      = 0x02
	V5ExprSubtract = 0x03
	V5ExprMultiply = 0x04
	V5ExprDivide   = 0x05
	V5ExprOpcode   = 0x06
	V5ExprEnd      = 0xFF
)

// V5 sub-opcodes. The low five bits select the operation; the upper bits
// are parameter bits like those of the opcode byte.
const (
	V5ResLoadScript    = 1
	V5ResLoadSound     = 2
	V5ResLoadCostume   = 3
	V5ResLoadRoom      = 4
	V5ResNukeScript    = 5
	V5ResNukeSound     = 6
	V5ResNukeCostume   = 7
	V5ResNukeRoom      = 8
	V5ResLockScript    = 9
	V5ResLockSound     = 10
	V5ResLockCostume   = 11
	V5ResLockRoom      = 12
	V5ResUnlockScript  = 13
	V5ResUnlockSound   = 14
	V5ResUnlockCostume = 15
	V5ResUnlockRoom    = 16
	V5ResClearHeap     = 17
	V5ResLoadCharset   = 18
	V5ResNukeCharset   = 19
	V5ResLoadFlObject  = 20

	V5CursorOn          = 1
	V5CursorOff         = 2
	V5UserputOn         = 3
	V5UserputOff        = 4
	V5CursorSoftOn      = 5
	V5CursorSoftOff     = 6
	V5UserputSoftOn     = 7
	V5UserputSoftOff    = 8
	V5CursorImage       = 10
	V5CursorHotspot     = 11
	V5CursorInit        = 12
	V5CursorInitCharset = 13
	V5CursorCharsetCols = 14

	V5RoomScroll       = 1
	V5RoomColor        = 2
	V5RoomScreen       = 3
	V5RoomPalette      = 4
	V5RoomShake        = 5
	V5RoomUnshake      = 6
	V5RoomIntensity    = 8
	V5RoomFade         = 10
	V5RoomRGBIntensity = 11
	V5RoomCycleSpeed   = 16

	V5ActorCostume     = 1
	V5ActorStepDist    = 2
	V5ActorSound       = 3
	V5ActorWalkAnim    = 4
	V5ActorTalkAnim    = 5
	V5ActorStandAnim   = 6
	V5ActorInit        = 8
	V5ActorElevation   = 9
	V5ActorDefaultAnim = 10
	V5ActorTalkColor   = 12
	V5ActorName        = 13
	V5ActorInitAnim    = 14
	V5ActorWidth       = 16
	V5ActorScale       = 17
	V5ActorIgnoreBoxes = 20
	V5ActorFollowBoxes = 21
	V5ActorAnimSpeed   = 22

	V5PrintAt       = 0
	V5PrintColor    = 1
	V5PrintClipped  = 2
	V5PrintErase    = 3
	V5PrintCenter   = 4
	V5PrintLeft     = 6
	V5PrintOverhead = 7
	V5PrintVoice    = 8
	V5PrintString   = 15

	V5WaitForActor    = 1
	V5WaitForMessage  = 2
	V5WaitForCamera   = 3
	V5WaitForSentence = 4

	V5SysRestart = 1
	V5SysPause   = 2
	V5SysQuit    = 3

	// V5End terminates sub-opcode and argument lists.
	V5End = 0xFF
)

// V6 opcodes. Stack machine with 16-bit immediates and variable words.
// V7 shares this table apart from a handful of patched entries.
const (
	V6PushByte              = 0x00
	V6PushWord              = 0x01
	V6PushByteVar           = 0x02
	V6PushWordVar           = 0x03
	V6ByteArrayRead         = 0x06
	V6WordArrayRead         = 0x07
	V6ByteArrayIndexedRead  = 0x0A
	V6WordArrayIndexedRead  = 0x0B
	V6Dup                   = 0x0C
	V6Not                   = 0x0D
	V6Eq                    = 0x0E
	V6Neq                   = 0x0F
	V6Gt                    = 0x10
	V6Lt                    = 0x11
	V6Le                    = 0x12
	V6Ge                    = 0x13
	V6Add                   = 0x14
	V6Sub                   = 0x15
	V6Mul                   = 0x16
	V6Div                   = 0x17
	V6Land                  = 0x18
	V6Lor                   = 0x19
	V6Pop                   = 0x1A
	V6WriteByteVar          = 0x42
	V6WriteWordVar          = 0x43
	V6ByteArrayWrite        = 0x46
	V6WordArrayWrite        = 0x47
	V6ByteArrayIndexedWrite = 0x4A
	V6WordArrayIndexedWrite = 0x4B
	V6ByteVarInc            = 0x4E
	V6WordVarInc            = 0x4F
	V6ByteArrayInc          = 0x52
	V6WordArrayInc          = 0x53
	V6ByteVarDec            = 0x56
	V6WordVarDec            = 0x57
	V6ByteArrayDec          = 0x5A
	V6WordArrayDec          = 0x5B
	V6If                    = 0x5C
	V6IfNot                 = 0x5D
	V6StartScript           = 0x5E
	V6StartScriptQuick      = 0x5F
	V6StartObject           = 0x60
	V6StopObjectCodeA       = 0x65
	V6StopObjectCodeB       = 0x66
	V6EndCutscene           = 0x67
	V6Cutscene              = 0x68
	V6StopMusic             = 0x69
	V6FreezeUnfreeze        = 0x6A
	V6CursorCommand         = 0x6B
	V6BreakHere             = 0x6C
	V6IfClassOfIs           = 0x6D
	V6SetClass              = 0x6E
	V6GetState              = 0x6F
	V6SetState              = 0x70
	V6SetOwner              = 0x71
	V6GetOwner              = 0x72
	V6Jump                  = 0x73
	V6StartSound            = 0x74
	V6StopSound             = 0x75
	V6StartMusic            = 0x76
	V6StopObjectScript      = 0x77
	V6PanCameraTo           = 0x78
	V6ActorFollowCamera     = 0x79
	V6SetCameraAt           = 0x7A
	V6LoadRoom              = 0x7B
	V6StopScript            = 0x7C
	V6WalkActorToObj        = 0x7D
	V6WalkActorTo           = 0x7E
	V6PutActorAtXY          = 0x7F
	V6PutActorAtObject      = 0x80
	V6FaceActor             = 0x81
	V6AnimateActor          = 0x82
	V6DoSentence            = 0x83
	V6PickupObject          = 0x84
	V6LoadRoomWithEgo       = 0x85
	V6GetRandomNumber       = 0x87
	V6GetRandomNumberRange  = 0x88
	V6GetActorMoving        = 0x8A
	V6IsScriptRunning       = 0x8B
	V6GetActorRoom          = 0x8C
	V6GetObjectX            = 0x8D
	V6GetObjectY            = 0x8E
	V6GetObjectOldDir       = 0x8F
	V6GetActorCostume       = 0x91
	V6FindInventory         = 0x92
	V6GetInventoryCount     = 0x93
	V6BeginOverride         = 0x95
	V6EndOverride           = 0x96
	V6SetObjectName         = 0x97
	V6IsSoundRunning        = 0x98
	V6ResourceRoutines      = 0x9B
	V6RoomOps               = 0x9C
	V6ActorOps              = 0x9D
	V6GetActorFromXY        = 0x9F
	V6FindObject            = 0xA0
	V6GetVerbEntrypoint     = 0xA3
	V6ArrayOps              = 0xA4
	V6PopAlt                = 0xA7
	V6GetActorWidth         = 0xA8
	V6Wait                  = 0xA9
	V6GetActorScaleX        = 0xAA
	V6GetActorAnimCounter   = 0xAB
	V6IsAnyOf               = 0xAD
	V6SystemOps             = 0xAE
	V6Delay                 = 0xB0
	V6DelaySeconds          = 0xB1
	V6DelayMinutes          = 0xB2
	V6StopSentence          = 0xB3
	V6PrintLine             = 0xB4
	V6PrintText             = 0xB5
	V6PrintDebug            = 0xB6
	V6PrintSystem           = 0xB7
	V6PrintActor            = 0xB8
	V6PrintEgo              = 0xB9
	V6TalkActor             = 0xBA
	V6TalkEgo               = 0xBB
	V6DimArray              = 0xBC
	V6StartObjectQuick      = 0xBE
	V6StartScriptQuick2     = 0xBF
	V6Dim2DimArray          = 0xC0
	V6Abs                   = 0xC4
	V6DistObjectObject      = 0xC5
	V6DistPtPt              = 0xC7
	V6KernelGetFunctions    = 0xC8
	V6KernelSetFunctions    = 0xC9
	V6DelayFrames           = 0xCA
	V6PickOneOf             = 0xCB
	V6PickOneOfDefault      = 0xCC
	V6GetDateTime           = 0xD0
	V6StopTalking           = 0xD1
	V6GetAnimateVariable    = 0xD2
	V6Shuffle               = 0xD4
	V6JumpToScript          = 0xD5
	V6Band                  = 0xD6
	V6Bor                   = 0xD7
	V6IsRoomScriptRunning   = 0xD8
	V6FindAllObjects        = 0xDD
)

// V8 opcodes. Stack machine with 32-bit immediates and variable words.
const (
	V8PushWord              = 0x01
	V8PushWordVar           = 0x02
	V8WordArrayRead         = 0x03
	V8WordArrayIndexedRead  = 0x04
	V8Dup                   = 0x05
	V8Pop                   = 0x06
	V8Not                   = 0x07
	V8Eq                    = 0x08
	V8Neq                   = 0x09
	V8Gt                    = 0x0A
	V8Lt                    = 0x0B
	V8Le                    = 0x0C
	V8Ge                    = 0x0D
	V8Add                   = 0x0E
	V8Sub                   = 0x0F
	V8Mul                   = 0x10
	V8Div                   = 0x11
	V8Land                  = 0x12
	V8Lor                   = 0x13
	V8Band                  = 0x14
	V8Bor                   = 0x15
	V8Mod                   = 0x16
	V8If                    = 0x64
	V8IfNot                 = 0x65
	V8Jump                  = 0x66
	V8BreakHere             = 0x67
	V8DelayFrames           = 0x68
	V8Wait                  = 0x69
	V8Delay                 = 0x6A
	V8DelaySeconds          = 0x6B
	V8DelayMinutes          = 0x6C
	V8WriteWordVar          = 0x6D
	V8WordVarInc            = 0x6E
	V8WordVarDec            = 0x6F
	V8DimArray              = 0x70
	V8WordArrayWrite        = 0x71
	V8WordArrayInc          = 0x72
	V8WordArrayDec          = 0x73
	V8Dim2DimArray          = 0x74
	V8WordArrayIndexedWrite = 0x75
	V8ArrayOps              = 0x76
	V8StartScript           = 0x79
	V8StartScriptQuick      = 0x7A
	V8StopObjectCode        = 0x7B
	V8StopScript            = 0x7C
	V8JumpToScript          = 0x7D
	V8Return                = 0x7E
	V8StartObject           = 0x7F
	V8StopObjectScript      = 0x80
	V8Cutscene              = 0x81
	V8EndCutscene           = 0x82
	V8FreezeUnfreeze        = 0x83
	V8BeginOverride         = 0x84
	V8EndOverride           = 0x85
	V8StopSentence          = 0x86
	V8SetClass              = 0x89
	V8SetState              = 0x8A
	V8SetOwner              = 0x8B
	V8PanCameraTo           = 0x8C
	V8ActorFollowCamera     = 0x8D
	V8SetCameraAt           = 0x8E
	V8PrintActor            = 0x8F
	V8PrintEgo              = 0x90
	V8TalkActor             = 0x91
	V8TalkEgo               = 0x92
	V8PrintLine             = 0x93
	V8PrintText             = 0x94
	V8PrintDebug            = 0x95
	V8PrintSystem           = 0x96
	V8CursorCommand         = 0x9C
	V8LoadRoom              = 0x9D
	V8LoadRoomWithEgo       = 0x9E
	V8WalkActorToObj        = 0x9F
	V8WalkActorTo           = 0xA0
	V8PutActorAtXY          = 0xA1
	V8PutActorAtObject      = 0xA2
	V8FaceActor             = 0xA3
	V8AnimateActor          = 0xA4
	V8DoSentence            = 0xA5
	V8PickupObject          = 0xA6
	V8ResourceRoutines      = 0xAA
	V8RoomOps               = 0xAB
	V8ActorOps              = 0xAC
	V8StartSound            = 0xAF
	V8StartMusic            = 0xB0
	V8StopSound             = 0xB1
	V8SoundKludge           = 0xB2
	V8SystemOps             = 0xB3
	V8StartScriptQuick2     = 0xC8
	V8StartObjectQuick      = 0xC9
	V8PickOneOf             = 0xCA
	V8PickOneOfDefault      = 0xCB
	V8IsAnyOf               = 0xCD
	V8GetRandomNumber       = 0xCE
	V8GetRandomNumberRange  = 0xCF
	V8IfClassOfIs           = 0xD0
	V8GetState              = 0xD1
	V8GetOwner              = 0xD2
	V8IsScriptRunning       = 0xD3
	V8IsSoundRunning        = 0xD5
	V8Abs                   = 0xD6
	V8IsActorInBox          = 0xD9
	V8GetVerbEntrypoint     = 0xDA
	V8GetActorFromXY        = 0xDB
	V8FindObject            = 0xDC
	V8FindInventory         = 0xDF
	V8GetInventoryCount     = 0xE0
	V8GetAnimateVariable    = 0xE1
	V8GetActorRoom          = 0xE2
	V8GetActorMoving        = 0xE4
	V8GetActorCostume       = 0xE5
	V8GetActorScaleX        = 0xE6
	V8GetActorElevation     = 0xE8
	V8GetActorWidth         = 0xE9
	V8GetObjectX            = 0xEB
	V8GetObjectY            = 0xEC
	V8DistObjectObject      = 0xEE
	V8DistPtPt              = 0xEF
)

// Sub-opcodes shared by the stack dialects.
const (
	// resourceRoutines
	ResLoadScript    = 0x64
	ResLoadSound     = 0x65
	ResLoadCostume   = 0x66
	ResLoadRoom      = 0x67
	ResNukeScript    = 0x68
	ResNukeSound     = 0x69
	ResNukeCostume   = 0x6A
	ResNukeRoom      = 0x6B
	ResLockScript    = 0x6C
	ResLockSound     = 0x6D
	ResLockCostume   = 0x6E
	ResLockRoom      = 0x6F
	ResUnlockScript  = 0x70
	ResUnlockSound   = 0x71
	ResUnlockCostume = 0x72
	ResUnlockRoom    = 0x73
	ResLoadCharset   = 0x75
	ResNukeCharset   = 0x76
	ResLoadFlObject  = 0x77

	// systemOps
	SysRestart = 0x9E
	SysPause   = 0x9F
	SysQuit    = 0xA0

	// wait
	WaitForActor    = 0xA8
	WaitForMessage  = 0xA9
	WaitForCamera   = 0xAA
	WaitForSentence = 0xAB

	// cursorCommand
	CursorOn            = 0x90
	CursorOff           = 0x91
	UserputOn           = 0x92
	UserputOff          = 0x93
	CursorSoftOn        = 0x94
	CursorSoftOff       = 0x95
	UserputSoftOn       = 0x96
	UserputSoftOff      = 0x97
	CursorImage         = 0x99
	CursorHotspot       = 0x9A
	CursorInitCharset   = 0x9C
	CursorCharsetColors = 0x9D
	CursorTransparent   = 0x9E

	// arrayOps
	ArrayAssignString = 0xCD
	ArrayAssignList   = 0xD0
	ArrayAssign2D     = 0xD4

	// dimArray element kinds
	DimInt    = 0xC7
	DimBit    = 0xC8
	DimNibble = 0xC9
	DimByte   = 0xCA
	DimString = 0xCB
	DimNuke   = 0xCC

	// roomOps
	RoomScroll       = 0xAC
	RoomScreen       = 0xAE
	RoomPalette      = 0xAF
	RoomShake        = 0xB0
	RoomUnshake      = 0xB1
	RoomIntensity    = 0xB3
	RoomCycleSpeed   = 0xB4
	RoomFade         = 0xB5
	RoomRGBIntensity = 0xB6
	RoomCopyPalette  = 0xB8
	RoomNewPalette   = 0xD5

	// actorOps
	ActorCostume     = 0x4C
	ActorStepDist    = 0x4D
	ActorInit        = 0x53
	ActorElevation   = 0x54
	ActorTalkColor   = 0x57
	ActorName        = 0x58
	ActorWidth       = 0x5B
	ActorScale       = 0x5C
	ActorIgnoreBoxes = 0x5F
	ActorFollowBoxes = 0x60
	ActorAnimSpeed   = 0x61
	ActorSetCurrent  = 0xC5
	ActorNew         = 0xD9
	ActorLayer       = 0xE3
	ActorDirection   = 0xE6

	// print subops
	PrintAt       = 0x41
	PrintColor    = 0x42
	PrintClipped  = 0x43
	PrintCenter   = 0x45
	PrintLeft     = 0x47
	PrintOverhead = 0x48
	PrintMumble   = 0x4A
	PrintString   = 0x4B
	PrintBegin    = 0xFE
	PrintEnd      = 0xFF

	// soundKludge commands
	KludgeStart   = 8
	KludgeStop    = 9
	KludgeStopAll = 10

	// kernelGetFunctions / kernelSetFunctions
	KernelPixel      = 113
	KernelActorBox   = 206
	KernelSetPalette = 1
)
