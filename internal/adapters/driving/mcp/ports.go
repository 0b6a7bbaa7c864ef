// Package mcp exposes the knowledge base to AI assistants over the
// Model Context Protocol: tools to ask and retrieve, resources to read
// sources and documents.
package mcp

import (
	"errors"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// ErrMissingRetrievalService is returned by the retrieve tool when
	// the server runs without retrieval.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is not configured")
)

// Ports are the services behind the tools and resources.
// Answer is required; without Source or Document the matching
// resources report empty lists or not found.
type Ports struct {
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	Source    driving.SourceService
	Document  driving.DocumentService
}

func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
