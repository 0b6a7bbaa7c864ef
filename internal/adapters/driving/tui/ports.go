// Package tui is the interactive terminal front end of the knowledge base.
package tui

import (
	"errors"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	ErrMissingAnswerService = errors.New("tui: answer service is required")
	ErrInvalidPorts         = errors.New("tui: invalid ports configuration")
)

// Ports holds the services the views call. Only Answer is required;
// the sources and documents screens degrade to empty lists without theirs.
type Ports struct {
	Answer    driving.AnswerService
	Source    driving.SourceService
	Document  driving.DocumentService
	Ingestion driving.IngestionService
}

func NewPorts(
	answer driving.AnswerService,
	source driving.SourceService,
	document driving.DocumentService,
	ingestion driving.IngestionService,
) *Ports {
	return &Ports{Answer: answer, Source: source, Document: document, Ingestion: ingestion}
}

func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Answer == nil:
		return ErrMissingAnswerService
	}
	return nil
}
