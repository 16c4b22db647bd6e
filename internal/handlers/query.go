package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/eventstats-api/internal/dataset"
	"github.com/serroba/eventstats-api/internal/middleware"
	"go.uber.org/zap"
)

// WelcomeMessage is served at the API root.
const WelcomeMessage = "Welcome to EQ Works 😎"

// QueryHandler serves catalog queries.
type QueryHandler struct {
	repo   dataset.Repository
	logger *zap.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(repo dataset.Repository, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{repo: repo, logger: logger}
}

// RowsResponse is the response of every catalog query.
type RowsResponse struct {
	Body []dataset.Row
}

// WelcomeResponse is the plain-text response of the root route.
type WelcomeResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// Welcome greets API clients.
func (h *QueryHandler) Welcome(_ context.Context, _ *struct{}) (*WelcomeResponse, error) {
	return &WelcomeResponse{
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(WelcomeMessage),
	}, nil
}

// Rows returns a handler that runs q and responds with its rows.
func (h *QueryHandler) Rows(q dataset.Query) func(context.Context, *struct{}) (*RowsResponse, error) {
	return func(ctx context.Context, _ *struct{}) (*RowsResponse, error) {
		rows, err := h.repo.Rows(ctx, q)
		if err != nil {
			h.logger.Error("query failed",
				zap.String("query", q.Name),
				zap.String("request_id", middleware.MetaFromContext(ctx).RequestID),
				zap.Error(err),
			)

			return nil, huma.Error500InternalServerError("failed to load data")
		}

		return &RowsResponse{Body: rows}, nil
	}
}
