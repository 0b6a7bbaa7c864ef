package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

func (s *Server) query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	categories, err := domain.ParseCategories(req.Categories)
	if err != nil {
		return err
	}
	if req.MaxResults < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "maxResults must not be negative")
	}

	result, err := s.ports.Answer.Answer(c.Request().Context(), domain.Query{
		Question:    req.Question,
		Language:    req.Language,
		UserContext: req.UserContext,
		Categories:  categories,
		MaxResults:  req.MaxResults,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewQueryResponse(result))
}

func (s *Server) ingestAll(c echo.Context) error {
	s.background(func(ctx context.Context) {
		reports, err := s.ports.Ingestion.ScrapeAll(ctx, logProgress)
		total := 0
		for _, r := range reports {
			total += r.Documents
		}
		if err != nil {
			logger.Error("ingest all: %v", err)
		}
		logger.Info("ingest all: stored %d document(s)", total)
	})
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) ingestSource(c echo.Context) error {
	sourceID := c.Param("sourceId")
	// Claim before answering so a concurrent request sees the conflict.
	run, err := s.ports.Ingestion.StartSource(c.Request().Context(), sourceID)
	if err != nil {
		return err
	}

	s.background(func(ctx context.Context) {
		if _, err := run(ctx, logProgress); err != nil {
			logger.Error("ingest %s: %v", sourceID, err)
		}
	})
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted", "sourceId": sourceID})
}

func (s *Server) sourceStatus(c echo.Context) error {
	status, err := s.ports.Ingestion.Status(c.Request().Context(), c.Param("sourceId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatusResponse{
		SourceID:           status.SourceID,
		Running:            status.Running,
		DocumentsProcessed: status.DocumentsProcessed,
		ErrorCount:         status.ErrorCount,
	})
}

func (s *Server) purgeSource(c echo.Context) error {
	n, err := s.ports.Ingestion.PurgeSource(c.Request().Context(), c.Param("sourceId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) listSources(c echo.Context) error {
	sources, err := s.ports.Source.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]SourceResponse, 0, len(sources))
	for i := range sources {
		out = append(out, newSourceResponse(&sources[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) sourceDocuments(c echo.Context) error {
	docs, err := s.ports.Document.ListBySource(c.Request().Context(), c.Param("sourceId"))
	if err != nil {
		return err
	}
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, NewDocumentResponse(&docs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getDocument(c echo.Context) error {
	doc, err := s.ports.Document.Get(c.Request().Context(), c.Param("documentId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewDocumentResponse(doc))
}

func (s *Server) documentChunks(c echo.Context) error {
	chunks, err := s.ports.Document.Chunks(c.Request().Context(), c.Param("documentId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewChunkResponses(chunks))
}

func logProgress(line string) {
	logger.Debug("%s", line)
}
