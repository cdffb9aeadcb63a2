package service

import (
	"context"
	"net/http"
	"time"
)

type SystemInformation struct {
	Version string `json:"version"`
	Uptime  int64  `json:"uptime"`
	Frames  int    `json:"frames"`
	Tables  int    `json:"tables"`
}

// SystemAPIService reports basic information about the server.
type SystemAPIService struct {
	startTime time.Time
	version   string
	frames    *FramesAPIService
	tables    *TablesAPIService
}

func NewSystemAPIService(version string, frames *FramesAPIService, tables *TablesAPIService) *SystemAPIService {
	return &SystemAPIService{startTime: time.Now(), version: version, frames: frames, tables: tables}
}

// GetSystemInfo - Get basic information about the system (e.g. version, uptime, etc.)
func (s *SystemAPIService) GetSystemInfo(ctx context.Context) (ImplResponse, error) {
	return Response(http.StatusOK, SystemInformation{
		Version: s.version,
		Uptime:  int64(time.Since(s.startTime).Seconds()),
		Frames:  len(s.frames.Session.List()),
		Tables:  len(s.tables.Metastore.GetTables()),
	}), nil
}
