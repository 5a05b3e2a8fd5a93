package identity

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/zeebo/xxh3"
)

// DefaultAppID salts the machine id so the raw id never leaves the host.
const DefaultAppID = "gobox"

// Fingerprinter produces a stable opaque string identifying this device.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// FingerprinterFunc adapts a function to Fingerprinter.
type FingerprinterFunc func(ctx context.Context) (string, error)

func (f FingerprinterFunc) Fingerprint(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static returns a Fingerprinter that always yields token.
func Static(token string) Fingerprinter {
	return FingerprinterFunc(func(context.Context) (string, error) {
		if strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("static fingerprint is empty")
		}
		return token, nil
	})
}

// HostFingerprinter derives a visitor id from host components: the
// app-salted machine id plus the host id, platform and architecture reported
// by gopsutil. The components are hashed into 32 hex characters.
type HostFingerprinter struct {
	AppID string

	machineID func(appID string) (string, error)
	hostInfo  func(ctx context.Context) (*host.InfoStat, error)
}

// NewHostFingerprinter returns a fingerprinter salted with appID.
func NewHostFingerprinter(appID string) *HostFingerprinter {
	if appID == "" {
		appID = DefaultAppID
	}
	return &HostFingerprinter{
		AppID:     appID,
		machineID: machineid.ProtectedID,
		hostInfo:  host.InfoWithContext,
	}
}

// Components returns the ordered inputs to the hash. At least one of the
// machine id and the host id must be present.
func (h *HostFingerprinter) Components(ctx context.Context) ([]string, error) {
	var (
		parts  []string
		stable bool
		errs   []string
	)

	if id, err := h.machineID(h.AppID); err == nil && id != "" {
		parts = append(parts, "machine="+id)
		stable = true
	} else if err != nil {
		errs = append(errs, "machineid: "+err.Error())
	}

	info, err := h.hostInfo(ctx)
	if err != nil {
		errs = append(errs, "host info: "+err.Error())
	}
	if info != nil {
		if info.HostID != "" {
			parts = append(parts, "host="+info.HostID)
			stable = true
		}
		parts = append(parts,
			"platform="+info.Platform,
			"arch="+info.KernelArch,
		)
	}
	parts = append(parts, "os="+runtime.GOOS)

	if !stable {
		return nil, fmt.Errorf("no stable host component (%s)", strings.Join(errs, "; "))
	}
	return parts, nil
}

func (h *HostFingerprinter) Fingerprint(ctx context.Context) (string, error) {
	parts, err := h.Components(ctx)
	if err != nil {
		return "", err
	}
	return hashComponents(parts), nil
}

func hashComponents(parts []string) string {
	sum := xxh3.Hash128([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}
