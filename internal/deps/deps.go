package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external executable discompressor relies on.
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
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Commands containing a path separator must point at an existing executable
// file; bare names are resolved through PATH.
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
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		case filepath.IsAbs(cmd) || strings.ContainsAny(cmd, `/\`):
			if isExecutableFile(cmd) {
				status.Available = true
			} else {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			}
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Requirements describes the encoder and prober pair for status output.
func (p BinaryPaths) Requirements() []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: p.Encoder, Description: "Encodes the target-size output"},
		{Name: "FFprobe", Command: p.Prober, Description: "Reads source duration"},
	}
}
