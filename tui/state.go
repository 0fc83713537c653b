package tui

// state is the browsing view. Whether the player is expanded is held by the store, not here.
type state int

const (
	loadingState state = iota
	errorState
	listState
	searchState
)
