package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// hostStats is a point-in-time view of the machine running the pipelines.
// Negative values mean the stat could not be read.
type hostStats struct {
	CPUPercent   float64 `json:"cpuPercent"`
	AvailableMem int64   `json:"availableMem"`
	FreeDisk     int64   `json:"freeDisk"`
}

func sampleHost(dir string) hostStats {
	s := hostStats{CPUPercent: -1, AvailableMem: -1, FreeDisk: -1}

	if p, err := cpu.Percent(200*time.Millisecond, false); err != nil {
		log.Printf("Warning: could not get CPU usage: %v", err)
	} else if len(p) > 0 {
		s.CPUPercent = p[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Printf("Warning: could not get memory usage: %v", err)
	} else {
		s.AvailableMem = int64(vm.Available)
	}

	if d, err := disk.Usage(dir); err != nil {
		log.Printf("Warning: could not get disk usage for %s: %v", dir, err)
	} else {
		s.FreeDisk = int64(d.Free)
	}
	return s
}

// check compares s to the configured idle thresholds. Unknown stats pass.
func (s hostStats) check(idleCPU float64, freeMem, freeDisk int64) error {
	if s.CPUPercent >= 0 && s.CPUPercent > 100.0-idleCPU {
		return fmt.Errorf("not enough idle CPU. Current usage: %.2f%%, Idle threshold: %.2f%%", s.CPUPercent, idleCPU)
	}
	if s.AvailableMem >= 0 && s.AvailableMem < freeMem {
		return fmt.Errorf("not enough free memory. Available: %d, Required: %d", s.AvailableMem, freeMem)
	}
	if s.FreeDisk >= 0 && s.FreeDisk < freeDisk {
		return fmt.Errorf("not enough free disk space. Available: %d, Required: %d", s.FreeDisk, freeDisk)
	}
	return nil
}

func (h *Handler) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.clips.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}

	stats := h.sample(h.clips.WorkDir())
	if err := stats.check(h.cfg.ThrottleCPU, h.cfg.ThrottleFreeMem, h.cfg.ThrottleFreeDisk); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error(), "host": stats})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "host": stats})
}
