package provision

// State is the provisioning lifecycle position.
type State int

const (
	StateNotInstalled State = iota
	StateDownloading
	StateExtracting
	StateInstalled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotInstalled:
		return "not_installed"
	case StateDownloading:
		return "downloading"
	case StateExtracting:
		return "extracting"
	case StateInstalled:
		return "installed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
