package actor

import "fmt"

// State はセーブデータ用のアクター状態
type State struct {
	Room        int    `msgpack:"room"`
	X           int    `msgpack:"x"`
	Y           int    `msgpack:"y"`
	Elevation   int    `msgpack:"elev"`
	Costume     int    `msgpack:"costume"`
	Facing      int    `msgpack:"facing"`
	Frame       int    `msgpack:"frame"`
	Width       int    `msgpack:"width"`
	Scale       int    `msgpack:"scale"`
	TalkColor   int    `msgpack:"talk_color"`
	Name        []byte `msgpack:"name"`
	Layer       int    `msgpack:"layer"`
	Visible     bool   `msgpack:"visible"`
	IgnoreBoxes bool   `msgpack:"ignore_boxes"`
	SpeedX      int    `msgpack:"speed_x"`
	SpeedY      int    `msgpack:"speed_y"`
	AnimSpeed   int    `msgpack:"anim_speed"`
	Frames      [5]int `msgpack:"frames"`
	AnimCounter int    `msgpack:"anim_counter"`
	Walking     bool   `msgpack:"walking"`
	DestX       int    `msgpack:"dest_x"`
	DestY       int    `msgpack:"dest_y"`
}

// CameraState はセーブデータ用のカメラ状態
type CameraState struct {
	X      int  `msgpack:"x"`
	DestX  int  `msgpack:"dest_x"`
	MinX   int  `msgpack:"min_x"`
	MaxX   int  `msgpack:"max_x"`
	Follow int  `msgpack:"follow"`
	FastX  bool `msgpack:"fast_x"`
}

// States は全アクターの状態を番号順に返す（0番を含む）
func (w *World) States() []State {
	out := make([]State, len(w.actors))
	for i := range w.actors {
		a := &w.actors[i]
		out[i] = State{
			Room: a.Room, X: a.X, Y: a.Y, Elevation: a.Elevation,
			Costume: a.Costume, Facing: a.Facing, Frame: a.Frame,
			Width: a.Width, Scale: a.Scale, TalkColor: a.TalkColor,
			Name: append([]byte(nil), a.Name...), Layer: a.Layer, Visible: a.Visible,
			IgnoreBoxes: a.IgnoreBoxes, SpeedX: a.SpeedX, SpeedY: a.SpeedY, AnimSpeed: a.AnimSpeed,
			Frames:      [5]int{a.InitFrame, a.WalkFrame, a.StandFrame, a.TalkStart, a.TalkStop},
			AnimCounter: a.AnimCounter,
			Walking:     a.walking, DestX: a.destX, DestY: a.destY,
		}
	}
	return out
}

// Restore はアクター表を置き換える。数が一致しなければ何も変えない
func (w *World) Restore(states []State) error {
	if len(states) != len(w.actors) {
		return fmt.Errorf("restore: %d actors, want %d", len(states), len(w.actors))
	}
	for i, s := range states {
		w.actors[i] = Actor{
			Number: i, Room: s.Room, X: s.X, Y: s.Y, Elevation: s.Elevation,
			Costume: s.Costume, Facing: s.Facing, Frame: s.Frame,
			Width: s.Width, Scale: s.Scale, TalkColor: s.TalkColor,
			Name: append([]byte(nil), s.Name...), Layer: s.Layer, Visible: s.Visible,
			IgnoreBoxes: s.IgnoreBoxes, SpeedX: s.SpeedX, SpeedY: s.SpeedY, AnimSpeed: s.AnimSpeed,
			InitFrame: s.Frames[0], WalkFrame: s.Frames[1], StandFrame: s.Frames[2],
			TalkStart: s.Frames[3], TalkStop: s.Frames[4],
			AnimCounter: s.AnimCounter,
			walking:     s.Walking, destX: s.DestX, destY: s.DestY,
			needRedraw: true,
		}
	}
	return nil
}

// State はカメラの状態を返す
func (c *Camera) State() CameraState {
	return CameraState{X: c.X, DestX: c.DestX, MinX: c.MinX, MaxX: c.MaxX, Follow: c.Follow, FastX: c.FastX}
}

// Restore はカメラの状態を置き換える
func (c *Camera) Restore(s CameraState) {
	c.X, c.DestX, c.MinX, c.MaxX, c.Follow, c.FastX = s.X, s.DestX, s.MinX, s.MaxX, s.Follow, s.FastX
}
