package tetris

// Rotate は形状をその場で時計回りに90度回転させます。
// 転置してから各行を反転するだけの行列操作で、壁蹴りや範囲チェックは行いません。
// 回転後の形状がボードに収まるかどうかは呼び出し側が Fits で確認します。
func (s Shape) Rotate() {
	n := len(s)
	for y := 0; y < n; y++ {
		for x := 0; x < y; x++ {
			s[x][y], s[y][x] = s[y][x], s[x][y]
		}
	}
	for _, row := range s {
		for l, r := 0, len(row)-1; l < r; l, r = l+1, r-1 {
			row[l], row[r] = row[r], row[l]
		}
	}
}

// Rotated は時計回りに90度回転させたコピーを返します。元の形状は変更しません。
func (s Shape) Rotated() Shape {
	out := s.Clone()
	out.Rotate()
	return out
}

// RotateTimes は形状を times 回（時計回り）その場で回転させます。
// 4回で元に戻るため、times は 4 の剰余で扱います。
func (s Shape) RotateTimes(times int) {
	times %= 4
	if times < 0 {
		times += 4
	}
	for i := 0; i < times; i++ {
		s.Rotate()
	}
}
