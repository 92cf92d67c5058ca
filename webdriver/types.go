package webdriver

// Keys identifying element and shadow root references on the wire.
const (
	ElementKey    = "element-6066-11e4-a52e-4f735466cecf"
	ShadowRootKey = "shadow-6066-11e4-a52e-4f735466cecf"
)

// Locator strategies.
const (
	CSSSelector     = "css selector"
	LinkText        = "link text"
	PartialLinkText = "partial link text"
	TagName         = "tag name"
	XPath           = "xpath"
)

// Locator is an element lookup. The value is passed to the remote end verbatim.
type Locator struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

func (l Locator) String() string { return l.Using + " " + `"` + l.Value + `"` }

func ByCSS(selector string) Locator { return Locator{Using: CSSSelector, Value: selector} }
func ByLinkText(text string) Locator { return Locator{Using: LinkText, Value: text} }
func ByPartialLinkText(text string) Locator { return Locator{Using: PartialLinkText, Value: text} }
func ByTagName(tag string) Locator { return Locator{Using: TagName, Value: tag} }
func ByXPath(xpath string) Locator { return Locator{Using: XPath, Value: xpath} }

// Capabilities are the capabilities requested for, or matched by, a session.
type Capabilities map[string]any

// BrowserName returns the browserName capability.
func (c Capabilities) BrowserName() string {
	s, _ := c["browserName"].(string)
	return s
}

// BrowserVersion returns the browserVersion capability.
func (c Capabilities) BrowserVersion() string {
	s, _ := c["browserVersion"].(string)
	return s
}

// ChromeCapabilities requests a chrome browser started with args, headless if asked.
func ChromeCapabilities(headless bool, args ...string) Capabilities {
	if headless {
		args = append([]string{"--headless=new"}, args...)
	}
	chromeArgs := make([]any, len(args))
	for i, a := range args {
		chromeArgs[i] = a
	}
	return Capabilities{
		"browserName": "chrome",
		"goog:chromeOptions": map[string]any{
			"args": chromeArgs,
		},
	}
}

// SessionRequest is the body of a new session command.
type SessionRequest struct {
	Capabilities CapabilitiesRequest `json:"capabilities"`
}

type CapabilitiesRequest struct {
	AlwaysMatch Capabilities   `json:"alwaysMatch,omitempty"`
	FirstMatch  []Capabilities `json:"firstMatch,omitempty"`
}

// Timeouts are session timeouts in milliseconds. Nil fields are omitted, so SetTimeouts leaves them unchanged.
type Timeouts struct {
	Script   *int `json:"script,omitempty"`
	PageLoad *int `json:"pageLoad,omitempty"`
	Implicit *int `json:"implicit,omitempty"`
}

// Ms is a convenience for building Timeouts.
func Ms(v int) *int { return &v }

// Rect is the position and size of a window or an element.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// WindowRectRequest sets a window rect. Nil fields are left unchanged.
type WindowRectRequest struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	Width  *int `json:"width"`
	Height *int `json:"height"`
}

type WindowType string

const (
	WindowTypeTab    WindowType = "tab"
	WindowTypeWindow WindowType = "window"
)

type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Expiry   int64  `json:"expiry,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
}

type PrintOptions struct {
	Orientation string       `json:"orientation,omitempty"`
	Scale       float64      `json:"scale,omitempty"`
	Background  bool         `json:"background,omitempty"`
	Page        *PrintPage   `json:"page,omitempty"`
	Margin      *PrintMargin `json:"margin,omitempty"`
	ShrinkToFit *bool        `json:"shrinkToFit,omitempty"`
	PageRanges  []string     `json:"pageRanges,omitempty"`
}

// PrintPage is a page size in centimeters.
type PrintPage struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// PrintMargin holds page margins in centimeters.
type PrintMargin struct {
	Top    *float64 `json:"top,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Right  *float64 `json:"right,omitempty"`
}

// Status is the readiness report of a remote end.
type Status struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
	Build   struct {
		Version string `json:"version"`
	} `json:"build"`
	OS struct {
		Arch    string `json:"arch"`
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"os"`
}

type elementReference struct {
	ID string `json:"element-6066-11e4-a52e-4f735466cecf"`
}

type shadowRootReference struct {
	ID string `json:"shadow-6066-11e4-a52e-4f735466cecf"`
}
