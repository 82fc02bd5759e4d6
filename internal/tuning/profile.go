package tuning

import (
	"fmt"
	"path/filepath"

	"github.com/dreschagin/container-bootstrap/internal/probe"
)

// Tier is a discrete memory bucket selected by threshold comparison.
type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

// LogFileName is the managed-process log file inside the log directory.
const LogFileName = "application.log"

// Profile holds the derived runtime tuning for the managed process.
type Profile struct {
	HeapMinMB     int
	HeapMaxMB     int
	Tier          Tier
	ActiveProfile string
	LogPath       string
}

// tier thresholds in MB, evaluated high to low. An unknown memory total
// (zero) falls through to the smallest tier.
const (
	largeTierAboveMB  = 4096
	mediumTierAboveMB = 2048
)

// Select derives the runtime profile from a resource snapshot. It is a pure
// function so tiering stays testable without launching anything.
func Select(snapshot probe.Snapshot, activeProfile, logDir string) Profile {
	p := Profile{
		ActiveProfile: activeProfile,
		LogPath:       filepath.Join(logDir, LogFileName),
	}
	if p.ActiveProfile == "" {
		p.ActiveProfile = "default"
	}

	switch {
	case snapshot.TotalMemoryMB > largeTierAboveMB:
		p.Tier, p.HeapMinMB, p.HeapMaxMB = TierLarge, 1024, 2048
	case snapshot.TotalMemoryMB > mediumTierAboveMB:
		p.Tier, p.HeapMinMB, p.HeapMaxMB = TierMedium, 512, 1024
	default:
		p.Tier, p.HeapMinMB, p.HeapMaxMB = TierSmall, 256, 512
	}

	return p
}

// JavaOpts renders the heap bounds as JVM flags.
func (p Profile) JavaOpts() string {
	return fmt.Sprintf("-Xms%dm -Xmx%dm", p.HeapMinMB, p.HeapMaxMB)
}
