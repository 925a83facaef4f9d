package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is anything that can report reachability; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthChecker struct {
	db    Pinger
	redis Pinger
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type HostStats struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemPercent  float64 `json:"memory_percent"`
	DiskPercent float64 `json:"disk_percent"`
}

type DetailedStatus struct {
	HealthStatus
	Redis ComponentHealth `json:"redis"`
	Host  HostStats       `json:"host"`
}

// NewHealthChecker takes the database pinger and an optional Redis pinger.
// A nil database pinger (memory store) always reports healthy.
func NewHealthChecker(db, redis Pinger) *HealthChecker {
	return &HealthChecker{db: db, redis: redis}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := check(h.db)

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
	}
}

// CheckDetailed adds Redis and host statistics. Redis being down does not
// make the service unhealthy; the cache is optional.
func (h *HealthChecker) CheckDetailed() DetailedStatus {
	status := DetailedStatus{HealthStatus: h.CheckBasic()}
	if h.redis == nil {
		status.Redis = ComponentHealth{Status: "disabled"}
	} else {
		status.Redis = check(h.redis)
	}

	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		status.Host.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		status.Host.MemPercent = memStats.UsedPercent
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		status.Host.DiskPercent = diskStats.UsedPercent
	}
	return status
}

func check(p Pinger) ComponentHealth {
	if p == nil {
		return ComponentHealth{Status: "healthy"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
