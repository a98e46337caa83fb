package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector reads the running host.
type RealDetector struct{}

// NewDetector returns a Detector for the running host.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports runtime.GOOS and a normalized runtime.GOARCH. On Linux it
// also asks gopsutil for the distribution; a failed lookup leaves those
// fields empty rather than failing, since the distro never decides which
// artifact is chosen.
//
// Unsupported architectures are passed through so the artifact table, not
// the detector, rejects them.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		Arch:    normalizeGOARCH(runtime.GOARCH),
		ArchRaw: runtime.GOARCH,
	}
	if info.OS != "linux" {
		return info, nil
	}
	if err := fillDistro(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

// fillDistro only returns an error when ctx is done.
func fillDistro(ctx context.Context, info *Info) error {
	id, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return nil
	}
	if id = normalizePlatform(id); id == "" {
		return nil
	}
	info.Platform = id
	info.Distro = mapDistro(family)
	info.Version = normalizePlatform(version)
	return nil
}

// StaticDetector returns a fixed Info. It backs --os/--arch overrides and tests.
type StaticDetector struct {
	Info *Info
	Err  error
}

// NewStaticDetector creates a detector that always reports info.
func NewStaticDetector(info *Info) Detector {
	return &StaticDetector{Info: info}
}

// Detect returns the configured info, honouring context cancellation.
func (s *StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Info == nil {
		return nil, fmt.Errorf("static detector has no platform info")
	}
	out := *s.Info
	return &out, nil
}
