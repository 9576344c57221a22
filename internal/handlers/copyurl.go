package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mahirjain10/copyurl-service/internal/rclone"
	"github.com/mahirjain10/copyurl-service/internal/registry"
	"github.com/mahirjain10/copyurl-service/internal/types"
	"github.com/mahirjain10/copyurl-service/internal/utils"
)

// ConfigFetcher downloads rclone configuration text.
type ConfigFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TransferStarter launches a job in the background and returns at once.
type TransferStarter interface {
	Start(job rclone.Job)
}

type CopyOptions struct {
	ConfigURL    string
	ConfigDir    string
	FetchTimeout time.Duration
}

// CopyHandler serves POST /copyurl.
type CopyHandler struct {
	registry  *registry.Registry
	fetcher   ConfigFetcher
	transfers TransferStarter
	opts      CopyOptions
	newID     func() string
	writeFile func(name string, data []byte, perm os.FileMode) error
	logger    *slog.Logger
}

func NewCopyHandler(reg *registry.Registry, fetcher ConfigFetcher, transfers TransferStarter, opts CopyOptions, logger *slog.Logger) *CopyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CopyHandler{
		registry:  reg,
		fetcher:   fetcher,
		transfers: transfers,
		opts:      opts,
		newID:     uuid.NewString,
		writeFile: os.WriteFile,
		logger:    logger,
	}
}

func (h *CopyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.CopyURLRequest
	if err := utils.DecodeJSONBody(r.Body, &req); err != nil {
		h.logger.Debug("copyurl body rejected", "error", err)
		req = types.CopyURLRequest{}
	}
	// only empty values are rejected; rclone reports anything else it cannot use
	if req.SourceURL == "" || req.Destination == "" {
		utils.WriteJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: types.ErrMsgMissingParams})
		return
	}

	if h.opts.ConfigURL == "" {
		h.logger.Error("copyurl rejected: RCLONE_CONFIG_URL is not set")
		utils.WriteJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: types.ErrMsgConfigURLNotSet})
		return
	}

	jobID := h.newID()
	log := h.logger.With("job_id", jobID)

	configPath, err := h.provisionConfig(r.Context(), jobID)
	if err != nil {
		log.Error("rclone configuration unavailable", "error", err)
		utils.WriteJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: types.ErrMsgConfigDownload})
		return
	}

	// seed before starting so a poll right after the response never sees NoProgress
	h.registry.Set(jobID, registry.StartingStatus)
	h.transfers.Start(rclone.Job{
		ID:          jobID,
		SourceURL:   req.SourceURL,
		Destination: req.Destination,
		ConfigPath:  configPath,
	})

	log.Info("copyurl accepted", "destination", req.Destination)
	utils.WriteJSON(w, http.StatusOK, types.CopyURLResponse{Message: types.MsgCopyStarted, JobID: jobID})
}

// provisionConfig downloads the configuration into a file private to jobID.
func (h *CopyHandler) provisionConfig(ctx context.Context, jobID string) (string, error) {
	if h.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.FetchTimeout)
		defer cancel()
	}

	data, err := h.fetcher.Fetch(ctx, h.opts.ConfigURL)
	if err != nil {
		return "", err
	}

	configPath, err := utils.JobConfigPath(h.opts.ConfigDir, jobID)
	if err != nil {
		return "", err
	}
	if err := h.writeFile(configPath, data, 0o600); err != nil {
		_ = utils.RemoveJobConfig(configPath)
		return "", err
	}
	return configPath, nil
}
