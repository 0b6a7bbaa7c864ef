// Package messages holds the tea.Msg values exchanged between TUI views.
package messages

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AnswerCompleted carries a grounded answer back to the model.
type AnswerCompleted struct {
	Result *domain.QueryResult
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies the active screen.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewAsk
	ViewSources
	ViewHelp
	ViewDocuments  // documents of one source
	ViewDocContent // chunks of one document
)

var viewNames = [...]string{
	ViewMenu:       "menu",
	ViewAsk:        "ask",
	ViewSources:    "sources",
	ViewHelp:       "help",
	ViewDocuments:  "documents",
	ViewDocContent: "doc_content",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// SourcesLoaded carries configured sources and their document counts.
type SourcesLoaded struct {
	Sources []domain.Source
	Counts  map[string]int
	Err     error
}

// SourceSelected is sent when a source is chosen from the list.
type SourceSelected struct {
	Source domain.Source
}

// IngestCompleted carries the outcome of a source ingestion.
type IngestCompleted struct {
	SourceID string
	Report   *domain.IngestReport
	Err      error
}

// DocumentsLoaded carries the documents of a source.
type DocumentsLoaded struct {
	SourceID  string
	Documents []domain.Document
	Err       error
}

// DocumentSelected is sent when a document is chosen from the list.
type DocumentSelected struct {
	Document domain.Document
}

// ChunksLoaded carries the ordered chunks of a document.
type ChunksLoaded struct {
	DocumentID string
	Chunks     []domain.Chunk
	Err        error
}

// ErrorOccurred is sent when an operation fails.
type ErrorOccurred struct {
	Err error
}

// Quit asks the app to exit.
type Quit struct{}
