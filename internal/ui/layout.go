package ui

const (
	minCols = 40
	minRows = 10
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= 100 && rows >= 24 {
		return LayoutWide
	}
	return LayoutCompact
}

// chromeRows is how many rows the header, input line and status bar take.
func chromeRows(mode LayoutMode) int {
	if mode == LayoutWide {
		return 3
	}
	// compact drops the header
	return 2
}
