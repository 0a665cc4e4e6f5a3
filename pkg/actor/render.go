package actor

import "image"

// CostumeRenderer はアクターをコスチュームで描画する
// ゲームごとのコスチューム形式はこのインターフェースの実装が扱う
type CostumeRenderer interface {
	// DrawActor は a を dst に描き、描いた範囲を返す
	// origin は部屋座標から dst 座標への変換
	DrawActor(dst *image.Paletted, a *Actor, costume []byte, origin image.Point) image.Rectangle
}

// CostumeFunc はコスチュームのバイト列を返す。未ロードなら nil
type CostumeFunc func(id int) []byte

// defaultHeight はコスチューム情報がないときのアクターの高さ
const defaultHeight = 64

// Bounds はアクターの部屋座標での矩形を返す
func (a *Actor) Bounds() image.Rectangle {
	h := defaultHeight * max(1, a.Scale) / 255
	w := a.Width * max(1, a.Scale) / 255
	top := a.Y - a.Elevation - h
	return image.Rect(a.X-w/2, top, a.X+w/2, a.Y-a.Elevation)
}

// BoxRenderer はコスチュームを読まず、アクターを単色の矩形で描く
// ヘッドレス実行と開発用
type BoxRenderer struct{}

func (BoxRenderer) DrawActor(dst *image.Paletted, a *Actor, costume []byte, origin image.Point) image.Rectangle {
	r := a.Bounds().Add(origin).Intersect(dst.Bounds())
	if r.Empty() || len(dst.Palette) == 0 {
		return r
	}
	idx := uint8(a.TalkColor)
	if len(costume) > 0 {
		idx = costume[0]
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetColorIndex(x, y, idx)
		}
	}
	return r
}

// drawOrder は描画順にソートしたアクター番号を返す
// レイヤー、Y座標、番号の順に比較する（挿入ソートで安定）
func (w *World) drawOrder(room int) []int {
	items := w.InRoom(room)
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && w.drawsAfter(items[j], key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
	return items
}

func (w *World) drawsAfter(a, b int) bool {
	x, y := &w.actors[a], &w.actors[b]
	if x.Layer != y.Layer {
		return x.Layer > y.Layer
	}
	if x.Y != y.Y {
		return x.Y > y.Y
	}
	return a > b
}

// Draw は room の見えているアクターを描画し、変化した矩形を返す
// left は画面左端の部屋座標
func (w *World) Draw(dst *image.Paletted, room, left int, r CostumeRenderer, costumes CostumeFunc) []image.Rectangle {
	if r == nil {
		r = BoxRenderer{}
	}
	var dirty []image.Rectangle
	origin := image.Pt(-left, 0)
	for _, n := range w.drawOrder(room) {
		a := &w.actors[n]
		if !a.Visible {
			continue
		}
		var costume []byte
		if costumes != nil && a.Costume != 0 {
			costume = costumes(a.Costume)
		}
		rect := r.DrawActor(dst, a, costume, origin)
		if a.needRedraw && !rect.Empty() {
			dirty = append(dirty, rect)
		}
		a.needRedraw = false
	}
	return dirty
}

// At は部屋 room の座標 (x, y) にいる最前面のアクター番号を返す。いなければ 0
func (w *World) At(room, x, y int) int {
	order := w.drawOrder(room)
	pt := image.Pt(x, y)
	for i := len(order) - 1; i >= 0; i-- {
		a := &w.actors[order[i]]
		if a.Visible && pt.In(a.Bounds()) {
			return order[i]
		}
	}
	return 0
}
