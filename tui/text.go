package tui

// UI Text Constants
const (
	TextTitle  = "Canada–China Compass"
	TextFooter = "tab: switch pane | j/k: scroll | q: quit"

	TextNoSituations = "No active situations today."
	TextNoSignals    = "No signals in this briefing."
	TextNoTension    = "This briefing has no tension index."
)
