package handlers

import (
	"net/http"

	"github.com/mahirjain10/copyurl-service/internal/registry"
	"github.com/mahirjain10/copyurl-service/internal/types"
	"github.com/mahirjain10/copyurl-service/internal/utils"
)

// ProgressHandler serves GET /progress/{job_id}. It always answers 200.
type ProgressHandler struct {
	registry *registry.Registry
}

func NewProgressHandler(reg *registry.Registry) *ProgressHandler {
	return &ProgressHandler{registry: reg}
}

func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	utils.WriteJSON(w, http.StatusOK, types.ProgressResponse{Progress: h.registry.Progress(jobID)})
}
