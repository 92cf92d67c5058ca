package webdriver

// Command names a WebDriver command, as used by CommandError.
type Command string

const (
	CmdNewSession       Command = "new session"
	CmdDeleteSession    Command = "delete session"
	CmdStatus           Command = "status"
	CmdGetTimeouts      Command = "get timeouts"
	CmdSetTimeouts      Command = "set timeouts"
	CmdNavigateTo       Command = "navigate to"
	CmdGetCurrentURL    Command = "get current url"
	CmdBack             Command = "back"
	CmdForward          Command = "forward"
	CmdRefresh          Command = "refresh"
	CmdGetTitle         Command = "get title"
	CmdGetWindowHandle  Command = "get window handle"
	CmdCloseWindow      Command = "close window"
	CmdSwitchToWindow   Command = "switch to window"
	CmdGetWindowHandles Command = "get window handles"
	CmdNewWindow        Command = "new window"
	CmdSwitchToFrame    Command = "switch to frame"
	CmdSwitchToParent   Command = "switch to parent frame"
	CmdGetWindowRect    Command = "get window rect"
	CmdSetWindowRect    Command = "set window rect"
	CmdMaximizeWindow   Command = "maximize window"
	CmdMinimizeWindow   Command = "minimize window"
	CmdFullscreenWindow Command = "fullscreen window"

	CmdGetActiveElement           Command = "get active element"
	CmdGetElementShadowRoot       Command = "get element shadow root"
	CmdFindElement                Command = "find element"
	CmdFindElements               Command = "find elements"
	CmdFindElementFromElement     Command = "find element from element"
	CmdFindElementsFromElement    Command = "find elements from element"
	CmdFindElementFromShadowRoot  Command = "find element from shadow root"
	CmdFindElementsFromShadowRoot Command = "find elements from shadow root"
	CmdIsElementSelected          Command = "is element selected"
	CmdGetElementAttribute        Command = "get element attribute"
	CmdGetElementProperty         Command = "get element property"
	CmdGetElementCSSValue         Command = "get element css value"
	CmdGetElementText             Command = "get element text"
	CmdGetElementTagName          Command = "get element tag name"
	CmdGetElementRect             Command = "get element rect"
	CmdIsElementEnabled           Command = "is element enabled"
	CmdGetComputedRole            Command = "get computed role"
	CmdGetComputedLabel           Command = "get computed label"
	CmdElementClick               Command = "element click"
	CmdElementClear               Command = "element clear"
	CmdElementSendKeys            Command = "element send keys"
	CmdGetPageSource              Command = "get page source"
	CmdExecuteScript              Command = "execute script"
	CmdExecuteAsyncScript         Command = "execute async script"
	CmdGetAllCookies              Command = "get all cookies"
	CmdGetNamedCookie             Command = "get named cookie"
	CmdAddCookie                  Command = "add cookie"
	CmdDeleteCookie               Command = "delete cookie"
	CmdDeleteAllCookies           Command = "delete all cookies"
	CmdPerformActions             Command = "perform actions"
	CmdReleaseActions             Command = "release actions"
	CmdDismissAlert               Command = "dismiss alert"
	CmdAcceptAlert                Command = "accept alert"
	CmdGetAlertText               Command = "get alert text"
	CmdSendAlertText              Command = "send alert text"
	CmdTakeScreenshot             Command = "take screenshot"
	CmdTakeElementScreenshot      Command = "take element screenshot"
	CmdPrintPage                  Command = "print page"
	CmdSwitchToFrameFromElement   Command = "switch to frame from element"
)
