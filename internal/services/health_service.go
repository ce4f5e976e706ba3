package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"eventkpi/internal/infrastructure"
	"eventkpi/internal/storage"
	"eventkpi/pkg/contracts"
)

// SessionInfo is the view of the comparison session health checks need
type SessionInfo interface {
	LoadedSlots() int
	StorageBackend() string
}

// pinger is implemented by stores that can check their connection
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataDir   string
	store     storage.BlobStore
	session   SessionInfo
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. store and session may be nil.
func NewHealthService(version, dataDir string, store storage.BlobStore, session SessionInfo, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("data_dir", dataDir))

	return &HealthService{
		version:   version,
		dataDir:   dataDir,
		store:     store,
		session:   session,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the storage backend and data directory
// are usable
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"storage": hs.checkStorageHealth(ctx),
			"data":    hs.checkDataHealth(),
			"session": hs.checkSessionHealth(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status with runtime statistics
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   &stats,
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkStorageHealth(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "ready", Message: "persistence disabled"}
	}

	if p, ok := hs.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("%s store unreachable: %v", hs.store.Name(), err),
			}
		}
	}

	return ServiceHealth{Status: "ready", Message: hs.store.Name() + " store is healthy"}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.dataDir == "" {
		return ServiceHealth{Status: "ready", Message: "no data directory configured"}
	}

	info, err := os.Stat(hs.dataDir)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("data directory not accessible: %v", err),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("data path is not a directory: %s", hs.dataDir),
		}
	}

	return ServiceHealth{Status: "ready", Message: "data directory is accessible"}
}

func (hs *HealthService) checkSessionHealth() ServiceHealth {
	if hs.session == nil {
		return ServiceHealth{Status: "ready"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d of 2 datasets loaded, storage %s", hs.session.LoadedSlots(), hs.session.StorageBackend()),
	}
}
