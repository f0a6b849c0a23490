package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"mpsync/internal/services"
)

// Requirement names an external binary a sync run shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement on this host.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement against PATH, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = checkBinary(req)
	}
	return results
}

func checkBinary(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	switch {
	case status.Command == "":
		status.Detail = "command not configured"
	case lookPathErr(status.Command) != nil:
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
	default:
		status.Available = true
	}
	return status
}

func lookPathErr(command string) error {
	_, err := exec.LookPath(command)
	return err
}

// Require returns services.ErrMissingCollaborator naming every unavailable
// non-optional dependency, or nil when all are present.
func Require(statuses []Status) error {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrMissingCollaborator, "", "dependencies", strings.Join(missing, ", "), nil)
}
