// Package battery reads the battery status the watchface shows.
package battery

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/radial-watchface/internal/domain"
)

// SysfsSource reads a Linux power-supply directory such as
// /sys/class/power_supply/BAT0.
type SysfsSource struct {
	dir string
}

// NewSysfsSource creates a source for dir.
func NewSysfsSource(dir string) *SysfsSource {
	return &SysfsSource{dir: dir}
}

// Peek reads capacity and status. Capacity is clamped to [0,100]; the
// battery counts as charging while status is "Charging" or "Full" (the
// kernel only reports Full while on external power).
func (s *SysfsSource) Peek() (domain.BatteryStatus, error) {
	capacity, err := s.readAttr("capacity")
	if err != nil {
		return domain.BatteryStatus{}, err
	}
	pct, err := strconv.Atoi(capacity)
	if err != nil {
		return domain.BatteryStatus{}, fmt.Errorf("parse %s/capacity %q: %w", s.dir, capacity, err)
	}

	status, err := s.readAttr("status")
	if err != nil {
		return domain.BatteryStatus{}, err
	}

	return domain.BatteryStatus{
		ChargePercent: pct,
		IsCharging:    status == "Charging" || status == "Full",
	}.Clamp(), nil
}

func (s *SysfsSource) readAttr(name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("read battery %s: %w", name, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// FixedSource always reports the same status. Used when no battery is present.
type FixedSource struct {
	Status domain.BatteryStatus
}

func (f FixedSource) Peek() (domain.BatteryStatus, error) {
	return f.Status.Clamp(), nil
}
