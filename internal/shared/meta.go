package shared

import (
	"time"
)

// SolveMeta holds operational metadata for one optimizer stage run.
type SolveMeta struct {
	Stage       string        `json:"stage"`
	Status      string        `json:"status"`
	Latency     time.Duration `json:"latency"`
	Nodes       int           `json:"nodes,omitempty"`
	Generations int           `json:"generations,omitempty"`
	Objective   float64       `json:"objective"`
}
