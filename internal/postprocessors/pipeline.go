// Package postprocessors turns stored documents into embeddable chunks.
//
// A pipeline runs a fixed list of stages. The first stage (the chunker)
// receives no chunks and creates them; later stages enrich what they get.
package postprocessors

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Pipeline runs its stages in insertion order.
type Pipeline struct {
	stages []driven.PostProcessor
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline returns a pipeline over stages.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc and passes the chunks through every later stage.
// A stage error aborts the run and is returned wrapped with the stage name.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		logger.Debug("postprocess %s: %s produced %d chunk(s) in %s",
			doc.ID, stage.Name(), len(out), time.Since(started).Round(time.Microsecond))
		chunks = out
	}
	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

func (p *Pipeline) Len() int { return len(p.stages) }

// Names lists stage names in run order.
func (p *Pipeline) Names() []string {
	out := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		out = append(out, s.Name())
	}
	return out
}
