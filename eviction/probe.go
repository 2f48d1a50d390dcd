package eviction

import (
	"fmt"
	"syscall"

	"github.com/dustin/go-humanize"
)

// Config is the subset of DiskUsageEvictionConfig the probe and pressure
// predicate need. It is duplicated here (rather than importing package
// config) so that eviction has no dependency on the YAML/CLI layer; the
// config package constructs one of these when it loads.
type Config struct {
	// MaxUsagePct: pressure if the integer percentage used is >= this.
	MaxUsagePct uint64
	// MinAvailBytes: pressure if available bytes are below this.
	MinAvailBytes uint64
}

// StatvfsResult is the subset of statvfs(2) output the probe needs.
type StatvfsResult struct {
	FragmentSize uint64
	BlockSize    uint64
	Blocks       uint64
	BlocksAvailable uint64
}

// MockStatvfs substitutes a fixed result for the real syscall, for tests.
type MockStatvfs struct {
	Result StatvfsResult
	Err    error
}

// Probe measures filesystem-level usage of a single directory tree. The
// zero value uses the real statvfs(2) syscall; set Mock for tests.
type Probe struct {
	Mock *MockStatvfs
}

// usage is the concrete Usage implementation returned by Probe.Get.
type usage struct {
	config      Config
	TotalBytes  uint64
	AvailBytes  uint64
}

var _ Usage = (*usage)(nil)

func (u *usage) HasPressure() bool {
	if u.AvailBytes < u.config.MinAvailBytes {
		return true
	}
	if u.TotalBytes == 0 {
		return false
	}
	used := 100 * (1 - float64(u.AvailBytes)/float64(u.TotalBytes))
	if used < 0 {
		// AvailBytes can exceed TotalBytes after simulated evictions.
		used = 0
	}
	usedPct := uint64(used)
	return usedPct >= u.config.MaxUsagePct
}

func (u *usage) AddAvailableBytes(n uint64) {
	u.AvailBytes += n
}

func (u *usage) Clone() Usage {
	cp := *u
	return &cp
}

// TotalAndAvail exposes the raw figures, e.g. for structured logging.
func (u *usage) TotalAndAvail() (total, avail uint64) {
	return u.TotalBytes, u.AvailBytes
}

func (u *usage) String() string {
	return fmt.Sprintf("{total=%s avail=%s}", humanize.IBytes(u.TotalBytes), humanize.IBytes(u.AvailBytes))
}

// Get measures usage of the filesystem backing path, or returns the mocked
// result if the probe was constructed with one.
//
// Presumably the only realistic failure mode in production is the path
// having been unlinked out from underneath the process.
func (p *Probe) Get(path string, cfg Config) (Usage, error) {
	var res StatvfsResult
	if p.Mock != nil {
		if p.Mock.Err != nil {
			return nil, p.Mock.Err
		}
		res = p.Mock.Result
	} else {
		var stat syscall.Statfs_t
		if err := syscall.Statfs(path, &stat); err != nil {
			return nil, fmt.Errorf("statvfs failed, presumably %q was unlinked: %w: %w", path, ErrProbeFailed, err)
		}
		res = StatvfsResult{
			FragmentSize:    uint64(stat.Frsize),
			BlockSize:       uint64(stat.Bsize),
			Blocks:          stat.Blocks,
			BlocksAvailable: stat.Bavail,
		}
	}

	// https://unix.stackexchange.com/a/703650
	blocksize := res.FragmentSize
	if res.FragmentSize == 0 {
		blocksize = res.BlockSize
	}

	return &usage{
		config:     cfg,
		TotalBytes: res.Blocks * blocksize,
		// Bavail (not Bfree) since the process runs unprivileged.
		AvailBytes: res.BlocksAvailable * blocksize,
	}, nil
}
