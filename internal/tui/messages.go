package tui

import (
	"github.com/dyike/patvec/pkg/patvec"
)

// SearchResultsMsg carries semantic search results
type SearchResultsMsg struct {
	Query   string
	Results []patvec.SearchResult
}

// KeywordResultsMsg carries keyword search results
type KeywordResultsMsg struct {
	Query   string
	Results []patvec.KeywordResult
}

// PatentLoadedMsg carries a loaded patent detail
type PatentLoadedMsg struct {
	Patent *patvec.Patent
}

// StatusLoadedMsg carries engine status for the status bar
type StatusLoadedMsg struct {
	Status patvec.Status
}

// ErrorMsg represents an error
type ErrorMsg struct {
	Err error
}
