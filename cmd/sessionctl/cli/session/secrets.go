package session

import (
	"fmt"

	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// SecretFinding is one leaked credential detected in a session transcript.
// The secret itself is redacted to its first and last two characters.
type SecretFinding struct {
	RuleID      string `json:"ruleId"`
	Description string `json:"description"`
	Secret      string `json:"secret"`
	RecordUUID  string `json:"recordUuid,omitempty"`
}

// ScanSecrets runs the default gitleaks ruleset over every conversational
// record in a session and reports redacted findings.
func ScanSecrets(project, sessionID string) ([]SecretFinding, error) {
	records, err := transcript.Load(paths.SessionFile(project, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build secret detector: %w", err)
	}

	findings := []SecretFinding{}
	for _, rec := range records {
		if !rec.IsConversational() {
			continue
		}
		text := rec.TextContent()
		if text == "" {
			continue
		}
		for _, f := range detector.DetectString(text) {
			findings = append(findings, SecretFinding{
				RuleID:      f.RuleID,
				Description: f.Description,
				Secret:      redact(f.Secret),
				RecordUUID:  rec.Identity(),
			})
		}
	}
	return findings, nil
}

// redact keeps just enough of a secret to identify which credential leaked.
func redact(secret string) string {
	if len(secret) <= 6 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}
