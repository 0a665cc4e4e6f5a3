package vars

// VarID names an engine-level variable whose slot number differs between bytecode dialects.
// A VarMap translates VarIDs to slots for one dialect.
type VarID int

const (
	VarKeypress VarID = iota
	VarEgo
	VarCameraPosX
	VarCameraPosY
	VarHaveMsg
	VarRoom
	VarOverride
	VarMachineSpeed
	VarMe
	VarNumActor
	VarCurrentLights
	VarTmr1
	VarTmr2
	VarTmr3
	VarTmr4
	VarMusicTimer
	VarActorRangeMin
	VarActorRangeMax
	VarCameraMinX
	VarCameraMaxX
	VarTimerNext
	VarVirtMouseX
	VarVirtMouseY
	VarRoomResource
	VarLastSound
	VarCutsceneExitKey
	VarTalkActor
	VarCameraFastX
	VarScrollScript
	VarEntryScript
	VarEntryScript2
	VarExitScript
	VarExitScript2
	VarVerbScript
	VarSentenceScript
	VarInventoryScript
	VarCutsceneStartScript
	VarCutsceneEndScript
	VarCharInc
	VarWalkToObj
	VarDebugMode
	VarHeapSpace
	VarRestartKey
	VarPauseKey
	VarMouseX
	VarMouseY
	VarTimer
	VarTimerTotal
	VarSoundCard
	VarVideoMode
	VarMainMenuKey
	VarCursorState
	VarUserPut
	VarSoundResult
	VarTalkStopKey
	VarFadeDelay
	VarSubtitles
	VarLeftButtonHold
	VarRightButtonHold
	VarLeftButtonDown
	VarRightButtonDown
	VarGameLoaded
	VarRoomWidth
	VarRoomHeight
	VarRandomNr
	VarTimeDateYear
	VarTimeDateMonth
	VarTimeDateDay
	VarTimeDateHour
	VarTimeDateMinute
	VarTimeDateSecond
	VarNewRoom

	NumVarIDs
)

// Absent marks a VarID that does not exist in a dialect.
const Absent = 0xFF

// VarMap translates VarIDs to global variable slots.
type VarMap [NumVarIDs]int

// NewVarMap returns a map with every entry Absent, then applies the given assignments.
func NewVarMap(assign map[VarID]int) VarMap {
	var m VarMap
	for i := range m {
		m[i] = Absent
	}
	for id, slot := range assign {
		m[id] = slot
	}
	return m
}

var varNames = [NumVarIDs]string{
	VarKeypress:            "KEYPRESS",
	VarEgo:                 "EGO",
	VarCameraPosX:          "CAMERA_POS_X",
	VarCameraPosY:          "CAMERA_POS_Y",
	VarHaveMsg:             "HAVE_MSG",
	VarRoom:                "ROOM",
	VarOverride:            "OVERRIDE",
	VarMachineSpeed:        "MACHINE_SPEED",
	VarMe:                  "ME",
	VarNumActor:            "NUM_ACTOR",
	VarCurrentLights:       "CURRENT_LIGHTS",
	VarTmr1:                "TMR_1",
	VarTmr2:                "TMR_2",
	VarTmr3:                "TMR_3",
	VarTmr4:                "TMR_4",
	VarMusicTimer:          "MUSIC_TIMER",
	VarActorRangeMin:       "ACTOR_RANGE_MIN",
	VarActorRangeMax:       "ACTOR_RANGE_MAX",
	VarCameraMinX:          "CAMERA_MIN_X",
	VarCameraMaxX:          "CAMERA_MAX_X",
	VarTimerNext:           "TIMER_NEXT",
	VarVirtMouseX:          "VIRT_MOUSE_X",
	VarVirtMouseY:          "VIRT_MOUSE_Y",
	VarRoomResource:        "ROOM_RESOURCE",
	VarLastSound:           "LAST_SOUND",
	VarCutsceneExitKey:     "CUTSCENEEXIT_KEY",
	VarTalkActor:           "TALK_ACTOR",
	VarCameraFastX:         "CAMERA_FAST_X",
	VarScrollScript:        "SCROLL_SCRIPT",
	VarEntryScript:         "ENTRY_SCRIPT",
	VarEntryScript2:        "ENTRY_SCRIPT2",
	VarExitScript:          "EXIT_SCRIPT",
	VarExitScript2:         "EXIT_SCRIPT2",
	VarVerbScript:          "VERB_SCRIPT",
	VarSentenceScript:      "SENTENCE_SCRIPT",
	VarInventoryScript:     "INVENTORY_SCRIPT",
	VarCutsceneStartScript: "CUTSCENE_START_SCRIPT",
	VarCutsceneEndScript:   "CUTSCENE_END_SCRIPT",
	VarCharInc:             "CHARINC",
	VarWalkToObj:           "WALKTO_OBJ",
	VarDebugMode:           "DEBUGMODE",
	VarHeapSpace:           "HEAPSPACE",
	VarRestartKey:          "RESTART_KEY",
	VarPauseKey:            "PAUSE_KEY",
	VarMouseX:              "MOUSE_X",
	VarMouseY:              "MOUSE_Y",
	VarTimer:               "TIMER",
	VarTimerTotal:          "TIMER_TOTAL",
	VarSoundCard:           "SOUNDCARD",
	VarVideoMode:           "VIDEOMODE",
	VarMainMenuKey:         "MAINMENU_KEY",
	VarCursorState:         "CURSORSTATE",
	VarUserPut:             "USERPUT",
	VarSoundResult:         "SOUNDRESULT",
	VarTalkStopKey:         "TALKSTOP_KEY",
	VarFadeDelay:           "FADE_DELAY",
	VarSubtitles:           "SUBTITLES",
	VarLeftButtonHold:      "LEFTBTN_HOLD",
	VarRightButtonHold:     "RIGHTBTN_HOLD",
	VarLeftButtonDown:      "LEFTBTN_DOWN",
	VarRightButtonDown:     "RIGHTBTN_DOWN",
	VarGameLoaded:          "GAME_LOADED",
	VarRoomWidth:           "ROOM_WIDTH",
	VarRoomHeight:          "ROOM_HEIGHT",
	VarRandomNr:            "RANDOM_NR",
	VarTimeDateYear:        "TIMEDATE_YEAR",
	VarTimeDateMonth:       "TIMEDATE_MONTH",
	VarTimeDateDay:         "TIMEDATE_DAY",
	VarTimeDateHour:        "TIMEDATE_HOUR",
	VarTimeDateMinute:      "TIMEDATE_MINUTE",
	VarTimeDateSecond:      "TIMEDATE_SECOND",
	VarNewRoom:             "NEW_ROOM",
}

// String returns the conventional VAR_ name without the prefix.
func (id VarID) String() string {
	if id < 0 || id >= NumVarIDs {
		return "UNKNOWN"
	}
	return varNames[id]
}
