package sketchpad

// ToolMode selects what single-contact input does.
type ToolMode uint8

const (
	ToolPen    ToolMode = iota // freehand stroke
	ToolEraser                 // continuous proximity erase
	ToolHandle                 // select and drag images/text
	ToolText                   // place a text box
)

func (t ToolMode) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolEraser:
		return "eraser"
	case ToolHandle:
		return "handle"
	case ToolText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseToolKey maps a keyboard shortcut to a tool.
func ParseToolKey(r rune) (ToolMode, bool) {
	switch r {
	case 'p':
		return ToolPen, true
	case 'e':
		return ToolEraser, true
	case 'h':
		return ToolHandle, true
	case 't':
		return ToolText, true
	}
	return ToolPen, false
}
