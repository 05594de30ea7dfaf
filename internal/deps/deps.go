package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary hlreel relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Codec returns the requirements for decoding, probing and encoding.
func Codec(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Decodes footage, trims audio, encodes and joins the reel"},
		{Name: "FFprobe", Command: ffprobe, Description: "Reads frame rate, frame count and audio duration"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns an error naming every required dependency that is not
// available, or nil.
func Missing(statuses []Status) error {
	var names []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("missing dependencies: %s", strings.Join(names, ", "))
}
