package utils

import "github.com/mahirjain10/copyurl-service/internal/types"

const pattern = "status"

func InitStatusData(jobID string, status string, line string, exitCode int, errorMsg string) *types.StatusData {
	return &types.StatusData{JobID: jobID, Status: status, Line: line, ExitCode: exitCode, ErrorMsg: errorMsg}
}

func InitStatusMessage(data *types.StatusData) *types.StatusMessage {
	return &types.StatusMessage{Pattern: pattern, Data: *data}
}
