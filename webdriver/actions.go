package webdriver

// Input source types.
const (
	SourceNone    = "none"
	SourceKey     = "key"
	SourcePointer = "pointer"
	SourceWheel   = "wheel"
)

// Pointer types.
const (
	PointerMouse = "mouse"
	PointerPen   = "pen"
	PointerTouch = "touch"
)

// Origins of pointer moves and scrolls that are not relative to an element.
const (
	OriginViewport = "viewport"
	OriginPointer  = "pointer"
)

// Special keys, as code points of the private use area.
const (
	KeyNull       = "\ue000"
	KeyCancel     = "\ue001"
	KeyHelp       = "\ue002"
	KeyBackspace  = "\ue003"
	KeyTab        = "\ue004"
	KeyClear      = "\ue005"
	KeyReturn     = "\ue006"
	KeyEnter      = "\ue007"
	KeyShift      = "\ue008"
	KeyControl    = "\ue009"
	KeyAlt        = "\ue00a"
	KeyPause      = "\ue00b"
	KeyEscape     = "\ue00c"
	KeySpace      = "\ue00d"
	KeyPageUp     = "\ue00e"
	KeyPageDown   = "\ue00f"
	KeyEnd        = "\ue010"
	KeyHome       = "\ue011"
	KeyArrowLeft  = "\ue012"
	KeyArrowUp    = "\ue013"
	KeyArrowRight = "\ue014"
	KeyArrowDown  = "\ue015"
	KeyInsert     = "\ue016"
	KeyDelete     = "\ue017"
	KeyF1         = "\ue031"
	KeyF12        = "\ue03c"
	KeyMeta       = "\ue03d"
)

// ActionSequence is the list of actions of one input source.
type ActionSequence struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Parameters *PointerParameters `json:"parameters,omitempty"`
	Actions    []Action           `json:"actions"`
}

type PointerParameters struct {
	PointerType string `json:"pointerType"`
}

// Action is a single tick of an input source. Fields that do not apply to its type are left empty.
// Origin is OriginViewport, OriginPointer or an *Element.
type Action struct {
	Type     string `json:"type"`
	Duration *int   `json:"duration,omitempty"`
	Value    string `json:"value,omitempty"`
	Button   *int   `json:"button,omitempty"`
	X        *int   `json:"x,omitempty"`
	Y        *int   `json:"y,omitempty"`
	DeltaX   *int   `json:"deltaX,omitempty"`
	DeltaY   *int   `json:"deltaY,omitempty"`
	Origin   any    `json:"origin,omitempty"`
}

func Pause(ms int) Action { return Action{Type: "pause", Duration: &ms} }

func KeyDown(key string) Action { return Action{Type: "keyDown", Value: key} }

func KeyUp(key string) Action { return Action{Type: "keyUp", Value: key} }

func PointerDown(button int) Action { return Action{Type: "pointerDown", Button: &button} }

func PointerUp(button int) Action { return Action{Type: "pointerUp", Button: &button} }

func PointerCancel() Action { return Action{Type: "pointerCancel"} }

// PointerMove moves the pointer to x, y relative to origin over ms milliseconds.
func PointerMove(x, y, ms int, origin any) Action {
	return Action{Type: "pointerMove", X: &x, Y: &y, Duration: &ms, Origin: origin}
}

// Scroll scrolls by dx, dy from the point x, y relative to origin.
func Scroll(x, y, dx, dy, ms int, origin any) Action {
	return Action{Type: "scroll", X: &x, Y: &y, DeltaX: &dx, DeltaY: &dy, Duration: &ms, Origin: origin}
}

func NoneActions(id string, actions ...Action) ActionSequence {
	return ActionSequence{Type: SourceNone, ID: id, Actions: actions}
}

func KeyActions(id string, actions ...Action) ActionSequence {
	return ActionSequence{Type: SourceKey, ID: id, Actions: actions}
}

func PointerActions(id, pointerType string, actions ...Action) ActionSequence {
	return ActionSequence{Type: SourcePointer, ID: id, Parameters: &PointerParameters{PointerType: pointerType}, Actions: actions}
}

func WheelActions(id string, actions ...Action) ActionSequence {
	return ActionSequence{Type: SourceWheel, ID: id, Actions: actions}
}
