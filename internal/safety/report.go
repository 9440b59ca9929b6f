package safety

import (
	"encoding/json"
	"fmt"
)

// Report is the aggregated result of all scans. Lists marshal as [] when
// empty, never null.
type Report struct {
	HumanForceGates []HumanForceGate `json:"human_force_gates"`
	Warnings        []Warning        `json:"warnings"`
	Errors          []Finding        `json:"errors"`
	Entropy         EntropyReport    `json:"entropy"`
	Anomaly         AnomalyReport    `json:"anomaly"`
	Topology        TopologyReport   `json:"topology"`
}

// HumanForceGate is a constraint that needs explicit approval.
type HumanForceGate struct {
	OperatorName     string `json:"operator_name"`
	Reason           string `json:"reason"`
	RequiredApproval bool   `json:"required_approval"`
}

// Warning is a non-blocking safety observation.
type Warning struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Finding is a blocking safety problem.
type Finding struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

// EntropyReport is the entropy scan result.
type EntropyReport struct {
	EstimatedEntropy float64 `json:"estimated_entropy"`
	Threshold        float64 `json:"threshold"`
	Safe             bool    `json:"safe"`
}

// AnomalyReport is the anomaly scan result.
type AnomalyReport struct {
	Anomalies []Anomaly `json:"anomalies"`
	Threshold float64   `json:"threshold"`
}

// Anomaly is one value that crossed its threshold.
type Anomaly struct {
	Location  string  `json:"location"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// TopologyReport is the topology-surgery throttle scan result.
type TopologyReport struct {
	SurgeryCount  int  `json:"surgery_count"`
	ThrottleLimit int  `json:"throttle_limit"`
	Safe          bool `json:"safe"`
}

// Severity grades a Warning.
type Severity int

const (
	Low Severity = iota
	Medium
	High
	Critical
)

var severityNames = []string{"Low", "Medium", "High", "Critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	v, err := lookupName(data, severityNames)
	if err != nil {
		return fmt.Errorf("severity: %w", err)
	}
	*s = Severity(v)
	return nil
}

// ErrorCode classifies a Finding.
type ErrorCode int

const (
	EntropyBlowup ErrorCode = iota
	AnomalyThresholdExceeded
	TopologySurgeryThrottleExceeded
	UnauthorizedOperator
)

var errorCodeNames = []string{
	"EntropyBlowup",
	"AnomalyThresholdExceeded",
	"TopologySurgeryThrottleExceeded",
	"UnauthorizedOperator",
}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(errorCodeNames) {
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
	return errorCodeNames[c]
}

// MarshalJSON encodes the code by name.
func (c ErrorCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a code name.
func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	v, err := lookupName(data, errorCodeNames)
	if err != nil {
		return fmt.Errorf("error code: %w", err)
	}
	*c = ErrorCode(v)
	return nil
}

func lookupName(data []byte, names []string) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", s)
}
