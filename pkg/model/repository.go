package model

// Health of a repository
type Health string

const (
	// HealthGreen means the repository is fully operational
	HealthGreen Health = "GREEN"

	// HealthYellow means the repository is operational with some degraded service
	HealthYellow Health = "YELLOW"

	// HealthRed means the repository is not operational
	HealthRed Health = "RED"
)

// IsValid checks the value of a health status
func (h Health) IsValid() bool {
	switch h {
	case HealthGreen, HealthYellow, HealthRed:
		return true
	default:
		return false
	}
}

func (h Health) String() string {
	return string(h)
}

// RepositoryInfo describes the current state of a repository
type RepositoryInfo struct {
	ID        string `json:"id" yaml:"id"`
	Health    Health `json:"health" yaml:"health"`
	Diagnosis string `json:"diagnosis,omitempty" yaml:"diagnosis,omitempty"`
	Branches  int    `json:"branches" yaml:"branches"`
	Head      int64  `json:"head" yaml:"head"` // head timestamp of MAIN
	_         struct{}
}
