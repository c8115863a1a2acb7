package tetris

// Fits は形状を pos の位置に置いたとき、壁や既存のブロックと衝突しないかを判定します。
// 左右の壁と床、既存のブロックとの重なりは不可です。
// ボードの上（y < 0）にはみ出すのは許可されます。出現直後のピースは上にはみ出していることがあるためです。
//
// Parameters:
//
//	shape : 判定する形状
//	pos   : 形状の左上のボード上の位置
//
// Returns:
//
//	bool: 置ける場合はtrue、衝突する場合はfalse
func (b *Board) Fits(shape Shape, pos Position) bool {
	for y, row := range shape {
		for x, c := range row {
			if c.IsEmpty() {
				continue
			}
			bx := pos.X + x
			by := pos.Y + y
			if bx < 0 || bx >= b.width || by >= b.height {
				return false // 左右の壁、または床との衝突
			}
			if by >= 0 && !b.cells[by][bx].IsEmpty() {
				return false // 既存のブロックとの衝突
			}
		}
	}
	return true
}

// CanLock は形状を pos の位置でボードに固定できるかどうかを判定します。
// Fits の条件に加えて、すべてのブロックがボードの内側（y >= 0）にある必要があります。
func (b *Board) CanLock(shape Shape, pos Position) bool {
	if !b.Fits(shape, pos) {
		return false
	}
	for _, block := range shape.Blocks() {
		if pos.Y+block.Y < 0 {
			return false // ボードの上にはみ出したまま着地した（積み上がりすぎ）
		}
	}
	return true
}
