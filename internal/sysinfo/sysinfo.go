// Package sysinfo reports host details for the system command and the
// professional persona's system context.
package sysinfo

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info is a host inventory snapshot.
type Info struct {
	Hostname      string
	OS            string
	Platform      string
	KernelVersion string
	Uptime        time.Duration
	CPUModel      string
	CPUCores      int
	MemTotalMB    uint64
	MemUsedMB     uint64
	MemUsedPct    float64
}

// Collect gathers host information. Partial failures leave fields zeroed
// rather than failing the whole snapshot.
func Collect() (*Info, error) {
	info := &Info{}

	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.OS = h.OS
		info.Platform = fmt.Sprintf("%s %s", h.Platform, h.PlatformVersion)
		info.KernelVersion = h.KernelVersion
		info.Uptime = time.Duration(h.Uptime) * time.Second
	} else {
		return nil, fmt.Errorf("host info: %w", err)
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if counts, err := cpu.Counts(true); err == nil {
		info.CPUCores = counts
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemTotalMB = vm.Total / (1 << 20)
		info.MemUsedMB = vm.Used / (1 << 20)
		info.MemUsedPct = vm.UsedPercent
	}

	return info, nil
}

// String renders a human-readable inventory.
func (i *Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Host:    %s\n", i.Hostname)
	fmt.Fprintf(&sb, "OS:      %s (%s)\n", i.Platform, i.KernelVersion)
	fmt.Fprintf(&sb, "Uptime:  %s\n", i.Uptime.Round(time.Minute))
	fmt.Fprintf(&sb, "CPU:     %s (%d cores)\n", i.CPUModel, i.CPUCores)
	fmt.Fprintf(&sb, "Memory:  %d/%d MB (%.1f%%)\n", i.MemUsedMB, i.MemTotalMB, i.MemUsedPct)
	return sb.String()
}

// PromptContext renders a one-line summary suitable for a system prompt.
func (i *Info) PromptContext() string {
	return fmt.Sprintf("The user's machine: %s, %d cores, %d MB RAM, %.0f%% memory in use.",
		i.Platform, i.CPUCores, i.MemTotalMB, i.MemUsedPct)
}
