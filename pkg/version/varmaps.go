package version

import "github.com/zurustar/sputm/pkg/vars"

func v5Vars() vars.VarMap {
	return vars.NewVarMap(map[vars.VarID]int{
		vars.VarKeypress:            0,
		vars.VarEgo:                 1,
		vars.VarCameraPosX:          2,
		vars.VarHaveMsg:             3,
		vars.VarRoom:                4,
		vars.VarOverride:            5,
		vars.VarMachineSpeed:        6,
		vars.VarMe:                  7,
		vars.VarNumActor:            8,
		vars.VarCurrentLights:       9,
		vars.VarTmr1:                11,
		vars.VarTmr2:                12,
		vars.VarTmr3:                13,
		vars.VarMusicTimer:          14,
		vars.VarActorRangeMin:       15,
		vars.VarActorRangeMax:       16,
		vars.VarCameraMinX:          17,
		vars.VarCameraMaxX:          18,
		vars.VarTimerNext:           19,
		vars.VarVirtMouseX:          20,
		vars.VarVirtMouseY:          21,
		vars.VarRoomResource:        22,
		vars.VarLastSound:           23,
		vars.VarCutsceneExitKey:     24,
		vars.VarTalkActor:           25,
		vars.VarCameraFastX:         26,
		vars.VarScrollScript:        27,
		vars.VarEntryScript:         28,
		vars.VarEntryScript2:        29,
		vars.VarExitScript:          30,
		vars.VarExitScript2:         31,
		vars.VarVerbScript:          32,
		vars.VarSentenceScript:      33,
		vars.VarInventoryScript:     34,
		vars.VarCutsceneStartScript: 35,
		vars.VarCutsceneEndScript:   36,
		vars.VarCharInc:             37,
		vars.VarWalkToObj:           38,
		vars.VarDebugMode:           39,
		vars.VarHeapSpace:           40,
		vars.VarRestartKey:          42,
		vars.VarPauseKey:            43,
		vars.VarMouseX:              44,
		vars.VarMouseY:              45,
		vars.VarTimer:               46,
		vars.VarTimerTotal:          47,
		vars.VarSoundCard:           48,
		vars.VarVideoMode:           49,
		vars.VarMainMenuKey:         50,
		vars.VarCursorState:         52,
		vars.VarUserPut:             53,
		vars.VarSoundResult:         56,
		vars.VarTalkStopKey:         57,
		vars.VarFadeDelay:           59,
		vars.VarSubtitles:           60,
	})
}

func v6Vars() vars.VarMap {
	m := v5Vars()
	m[vars.VarRoomWidth] = 41
	m[vars.VarRoomHeight] = 54
	m[vars.VarGameLoaded] = 69
	m[vars.VarLeftButtonHold] = 74
	m[vars.VarRightButtonHold] = 75
	m[vars.VarRandomNr] = 118
	m[vars.VarTimeDateYear] = 119
	m[vars.VarTimeDateMonth] = 120
	m[vars.VarTimeDateDay] = 121
	m[vars.VarTimeDateHour] = 125
	m[vars.VarTimeDateMinute] = 126
	m[vars.VarNewRoom] = 127
	return m
}

// v7Vars lays out the variables the way the v7 interpreters regrouped them:
// input and room geometry first, script hooks later.
func v7Vars() vars.VarMap {
	return vars.NewVarMap(map[vars.VarID]int{
		vars.VarMouseX:              1,
		vars.VarMouseY:              2,
		vars.VarVirtMouseX:          3,
		vars.VarVirtMouseY:          4,
		vars.VarRoomWidth:           5,
		vars.VarRoomHeight:          6,
		vars.VarCameraPosX:          7,
		vars.VarCameraPosY:          8,
		vars.VarOverride:            9,
		vars.VarRoom:                10,
		vars.VarRoomResource:        11,
		vars.VarTalkActor:           12,
		vars.VarHaveMsg:             13,
		vars.VarTimer:               14,
		vars.VarTmr1:                15,
		vars.VarTmr2:                16,
		vars.VarTmr3:                17,
		vars.VarTmr4:                18,
		vars.VarTimeDateYear:        19,
		vars.VarTimeDateMonth:       20,
		vars.VarTimeDateDay:         21,
		vars.VarTimeDateHour:        22,
		vars.VarTimeDateMinute:      23,
		vars.VarTimeDateSecond:      24,
		vars.VarLeftButtonDown:      25,
		vars.VarRightButtonDown:     26,
		vars.VarLeftButtonHold:      27,
		vars.VarRightButtonHold:     28,
		vars.VarGameLoaded:          32,
		vars.VarNewRoom:             33,
		vars.VarDebugMode:           34,
		vars.VarKeypress:            35,
		vars.VarEgo:                 36,
		vars.VarMe:                  37,
		vars.VarNumActor:            38,
		vars.VarCurrentLights:       39,
		vars.VarMusicTimer:          40,
		vars.VarActorRangeMin:       41,
		vars.VarActorRangeMax:       42,
		vars.VarCameraMinX:          43,
		vars.VarCameraMaxX:          44,
		vars.VarCameraFastX:         45,
		vars.VarTimerNext:           46,
		vars.VarTimerTotal:          47,
		vars.VarMachineSpeed:        48,
		vars.VarLastSound:           49,
		vars.VarCutsceneExitKey:     50,
		vars.VarRestartKey:          51,
		vars.VarPauseKey:            52,
		vars.VarMainMenuKey:         53,
		vars.VarTalkStopKey:         54,
		vars.VarScrollScript:        55,
		vars.VarEntryScript:         56,
		vars.VarEntryScript2:        57,
		vars.VarExitScript:          58,
		vars.VarExitScript2:         59,
		vars.VarVerbScript:          60,
		vars.VarSentenceScript:      61,
		vars.VarInventoryScript:     62,
		vars.VarCutsceneStartScript: 63,
		vars.VarCutsceneEndScript:   64,
		vars.VarCursorState:         65,
		vars.VarUserPut:             66,
		vars.VarSoundResult:         67,
		vars.VarFadeDelay:           68,
		vars.VarCharInc:             69,
		vars.VarWalkToObj:           70,
		vars.VarRandomNr:            71,
	})
}

// v8Vars shares the v7 grouping; the slots moved when the input block grew.
func v8Vars() vars.VarMap {
	m := v7Vars()
	for id, slot := range m {
		if slot != vars.Absent && slot >= 25 {
			m[id] = slot + 4
		}
	}
	return m
}
