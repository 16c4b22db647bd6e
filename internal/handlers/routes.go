package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/eventstats-api/internal/dataset"
)

// RegisterRoutes registers the welcome route and one GET route per query.
func RegisterRoutes(api huma.API, h *QueryHandler, queries []dataset.Query) {
	huma.Register(api, huma.Operation{
		OperationID: "welcome",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Welcome message",
		Tags:        []string{"Meta"},
	}, h.Welcome)

	for _, q := range queries {
		huma.Register(api, huma.Operation{
			OperationID: q.Name,
			Method:      http.MethodGet,
			Path:        q.Path,
			Summary:     q.Summary,
			Tags:        []string{"Data"},
		}, h.Rows(q))
	}
}
