package pdf

// ChipBounds 描述技能标签可用的区域。
type ChipBounds struct {
	Left      float64 // 行首 x
	Right     float64 // 右边距 x，标签不能越过
	Top       float64 // 第一行 y
	Bottom    float64 // 页面可用底部，仅用于标记溢出
	RowHeight float64
	Padding   float64 // 文本左右各自的内边距
	Gap       float64 // 同一行相邻标签的间距
}

// ChipPlacement 是单个技能标签的位置。
type ChipPlacement struct {
	Text  string
	X     float64
	Y     float64
	Width float64
	Row   int
	// Overflow 表示该行起点低于 Bottom；仍放在同一页，不会新起一页。
	Overflow bool
}

// LayoutChips 按输入顺序从左到右排布标签。越过右边距的标签换到下一行行首；
// 行首标签即使超宽也照放，标签不会被拆分。已排好的行不再回填。
func LayoutChips(skills []string, measure func(string) float64, b ChipBounds) []ChipPlacement {
	out := make([]ChipPlacement, 0, len(skills))
	x, y, row := b.Left, b.Top, 0
	for _, skill := range skills {
		w := measure(skill) + 2*b.Padding
		if x > b.Left && x+w > b.Right {
			x = b.Left
			y += b.RowHeight
			row++
		}
		out = append(out, ChipPlacement{
			Text:     skill,
			X:        x,
			Y:        y,
			Width:    w,
			Row:      row,
			Overflow: y+b.RowHeight > b.Bottom,
		})
		x += w + b.Gap
	}
	return out
}
