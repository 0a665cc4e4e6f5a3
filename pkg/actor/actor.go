// Package actor はアクター（歩行・向き・アニメーション）とカメラを管理する
// 描画そのものは CostumeRenderer に委譲する
package actor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zurustar/sputm/pkg/logger"
)

// ErrActorOutOfRange はアクター番号が表の範囲外のときに返される
var ErrActorOutOfRange = errors.New("actor number out of range")

// 向き（度）
const (
	DirWest  = 270
	DirEast  = 90
	DirSouth = 180
	DirNorth = 0
)

// アニメーション番号のうち特別な意味を持つもの
const (
	AnimTurnWest  = 0xF8
	AnimTurnEast  = 0xF9
	AnimTurnSouth = 0xFA
	AnimTurnNorth = 0xFB
	AnimStopWalk  = 0xFC
)

// Actor はアクター1体の状態
type Actor struct {
	Number    int
	Room      int
	X, Y      int
	Elevation int
	Costume   int
	Facing    int
	Frame     int
	Width     int
	Scale     int
	TalkColor int
	Name      []byte
	Layer     int
	Visible   bool

	IgnoreBoxes bool
	SpeedX      int
	SpeedY      int
	AnimSpeed   int

	// フレーム番号
	InitFrame  int
	WalkFrame  int
	StandFrame int
	TalkStart  int
	TalkStop   int

	AnimCounter int

	walking    bool
	destX      int
	destY      int
	animTimer  int
	needRedraw bool
}

// Moving は歩行中かどうかを返す
func (a *Actor) Moving() bool { return a.walking }

// Dest は歩行先を返す
func (a *Actor) Dest() (int, int) { return a.destX, a.destY }

// reset はアクターを初期状態に戻す（actorOps の init に相当）
func (a *Actor) reset() {
	n := a.Number
	*a = Actor{
		Number:     n,
		Facing:     DirSouth,
		Width:      24,
		Scale:      255,
		TalkColor:  15,
		SpeedX:     8,
		SpeedY:     2,
		InitFrame:  1,
		WalkFrame:  2,
		StandFrame: 3,
		TalkStart:  4,
		TalkStop:   5,
		needRedraw: true,
	}
	a.Frame = a.InitFrame
}

// World はアクター表
// アクター0は使わない（スクリプトでは「なし」を意味する）
type World struct {
	actors []Actor
	log    *slog.Logger
}

// Option は World の設定関数
type Option func(*World)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(w *World) {
		w.log = log
	}
}

// NewWorld は n 体分のアクター表を作成する
func NewWorld(n int, opts ...Option) *World {
	w := &World{
		actors: make([]Actor, n),
		log:    logger.GetLogger(),
	}
	for i := range w.actors {
		w.actors[i].Number = i
		w.actors[i].reset()
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Count はアクター数を返す
func (w *World) Count() int { return len(w.actors) }

// Get はアクター n を返す
func (w *World) Get(n int) (*Actor, error) {
	if n < 1 || n >= len(w.actors) {
		return nil, fmt.Errorf("actor %d (of %d): %w", n, len(w.actors), ErrActorOutOfRange)
	}
	return &w.actors[n], nil
}

// Init はアクター n を初期化する
func (w *World) Init(n int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	room := a.Room
	a.reset()
	a.Room = room
	return nil
}

// Put はアクターを部屋の座標に置く。歩行は止まる
func (w *World) Put(n, x, y, room int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	a.X, a.Y = x, y
	a.Room = room
	a.walking = false
	a.Visible = room != 0
	a.needRedraw = true
	return nil
}

// PutInRoom は位置を変えずに部屋だけ変える
func (w *World) PutInRoom(n, room int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	return w.Put(n, a.X, a.Y, room)
}

// WalkTo は歩行を開始する。すでに目的地にいる場合は何もしない
func (w *World) WalkTo(n, x, y int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	if a.X == x && a.Y == y {
		a.walking = false
		return nil
	}
	a.destX, a.destY = x, y
	a.walking = true
	a.Frame = a.WalkFrame
	a.Facing = facingToward(a.X, a.Y, x, y, a.Facing)
	return nil
}

// Stop は歩行を止める
func (w *World) Stop(n int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	a.walking = false
	a.Frame = a.StandFrame
	return nil
}

// Face は向きを変える。dir は度で、最も近い4方向に丸める
func (w *World) Face(n, dir int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	a.Facing = normalizeDir(dir)
	a.needRedraw = true
	return nil
}

// FaceActor は other の方を向かせる
func (w *World) FaceActor(n, other int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	b, err := w.Get(other)
	if err != nil {
		return err
	}
	a.Facing = facingToward(a.X, a.Y, b.X, b.Y, a.Facing)
	a.needRedraw = true
	return nil
}

// Animate はアニメーションを開始する。特別な番号は向きの変更や歩行停止になる
func (w *World) Animate(n, anim int) error {
	a, err := w.Get(n)
	if err != nil {
		return err
	}
	switch anim {
	case AnimTurnWest:
		a.Facing = DirWest
	case AnimTurnEast:
		a.Facing = DirEast
	case AnimTurnSouth:
		a.Facing = DirSouth
	case AnimTurnNorth:
		a.Facing = DirNorth
	case AnimStopWalk:
		a.walking = false
		a.Frame = a.StandFrame
	default:
		a.Frame = anim
		a.AnimCounter = 0
	}
	a.needRedraw = true
	return nil
}

// Moving はアクター n が歩行中かどうかを返す。範囲外なら false
func (w *World) Moving(n int) bool {
	a, err := w.Get(n)
	return err == nil && a.walking
}

// InRoom は room にいるアクター番号を昇順で返す
func (w *World) InRoom(room int) []int {
	var out []int
	for i := 1; i < len(w.actors); i++ {
		if w.actors[i].Room == room && room != 0 {
			out = append(out, i)
		}
	}
	return out
}

// Step は1ティック分、歩行とアニメーションを進める
func (w *World) Step() {
	for i := 1; i < len(w.actors); i++ {
		a := &w.actors[i]
		if a.walking {
			a.X = approach(a.X, a.destX, max(1, a.SpeedX))
			a.Y = approach(a.Y, a.destY, max(1, a.SpeedY))
			a.needRedraw = true
			if a.X == a.destX && a.Y == a.destY {
				a.walking = false
				a.Frame = a.StandFrame
				w.log.Debug("Actor arrived", "actor", i, "x", a.X, "y", a.Y)
			}
		}
		if a.Room != 0 {
			a.animTimer++
			if a.animTimer > a.AnimSpeed {
				a.animTimer = 0
				a.AnimCounter++
			}
		}
	}
}

// HideAll は全アクターを部屋から外す（部屋切り替え時）
func (w *World) HideAll() {
	for i := 1; i < len(w.actors); i++ {
		w.actors[i].Visible = false
		w.actors[i].walking = false
	}
}

func approach(cur, dest, step int) int {
	switch {
	case cur < dest:
		return min(cur+step, dest)
	case cur > dest:
		return max(cur-step, dest)
	}
	return cur
}

func normalizeDir(dir int) int {
	dir = ((dir % 360) + 360) % 360
	return ((dir + 45) / 90 % 4) * 90
}

func facingToward(x, y, tx, ty, cur int) int {
	dx, dy := tx-x, ty-y
	switch {
	case dx == 0 && dy == 0:
		return cur
	case abs(dx) >= abs(dy)*2:
		if dx > 0 {
			return DirEast
		}
		return DirWest
	case dy > 0:
		return DirSouth
	}
	return DirNorth
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
