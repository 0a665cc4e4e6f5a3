package actor

// cameraStep はパン中に1ティックで動くピクセル数
const cameraStep = 8

// followMargin は追従中のアクターが画面中央からこれ以上離れるとカメラが動く幅
const followMargin = 80

// Camera は横スクロールのカメラ
// X は画面中央の部屋座標
type Camera struct {
	X      int
	DestX  int
	MinX   int
	MaxX   int
	Follow int
	FastX  bool
	Width  int
}

// NewCamera は画面幅 width のカメラを作成する
func NewCamera(width int) *Camera {
	c := &Camera{Width: width}
	c.Reset(width)
	return c
}

// Reset は部屋幅 roomWidth に合わせて範囲を設定し、左端に置く
func (c *Camera) Reset(roomWidth int) {
	c.MinX = c.Width / 2
	c.MaxX = max(c.MinX, roomWidth-c.Width/2)
	c.X = c.MinX
	c.DestX = c.MinX
	c.Follow = 0
}

func (c *Camera) clamp(x int) int {
	return max(c.MinX, min(c.MaxX, x))
}

// SetAt はカメラを即座に移動し、パンと追従をやめる
func (c *Camera) SetAt(x int) {
	c.X = c.clamp(x)
	c.DestX = c.X
	c.Follow = 0
}

// PanTo は目的地へのパンを開始する。追従はやめる
func (c *Camera) PanTo(x int) {
	c.DestX = c.clamp(x)
	c.Follow = 0
}

// FollowActor はアクター n を追従する。0 で追従をやめる
func (c *Camera) FollowActor(n int) {
	c.Follow = n
}

// Moving はパン中かどうかを返す
func (c *Camera) Moving() bool { return c.X != c.DestX }

// Left は画面左端の部屋座標を返す
func (c *Camera) Left() int { return c.X - c.Width/2 }

// Step は1ティック分カメラを動かす。追従中はアクターの位置を見る
func (c *Camera) Step(w *World) {
	if c.Follow != 0 {
		if a, err := w.Get(c.Follow); err == nil {
			if abs(a.X-c.X) > followMargin || c.FastX {
				c.DestX = c.clamp(a.X)
			}
		}
	}
	if c.FastX {
		c.X = c.DestX
		return
	}
	c.X = approach(c.X, c.DestX, cameraStep)
}
