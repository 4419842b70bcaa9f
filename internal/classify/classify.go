// Package classify maps a finding's type to its classification, regulatory
// tags, and remediation guidance. Lookups are pure: same type and severity
// in, same answer out.
package classify

import (
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/types"
)

// Outcome is the compliance-facing annotation for one finding.
type Outcome struct {
	Classification types.Classification
	RegulatoryTags []string
	Remediation    []string
}

// Resolve derives the outcome for one pattern definition at the given
// severity.
func Resolve(def *registry.PatternDefinition, sev types.Severity) Outcome {
	out := Outcome{
		Classification: def.Classification,
		RegulatoryTags: regulatoryTags(def),
		Remediation:    remediation(def, sev),
	}
	return out
}

func regulatoryTags(def *registry.PatternDefinition) []string {
	switch def.Classification {
	case types.ClassPHI:
		return []string{
			"HIPAA Privacy Rule 164.514(b)(2)",
			"HIPAA Security Rule 164.312(a)(1)",
		}
	case types.ClassPII:
		tags := []string{"HIPAA Privacy Rule 164.514(b)(2)"}
		if def.TypeID == "credit_card" {
			tags = append(tags, "PCI DSS 3.4")
		}
		return tags
	case types.ClassSecret:
		return []string{"HIPAA Security Rule 164.312(a)(2)(i)"}
	default:
		return nil
	}
}

// providerByType routes secrets to provider-specific revocation steps.
var providerByType = map[string]string{
	"aws_access_key":      "aws",
	"aws_secret_key":      "aws",
	"github_token":        "github",
	"stripe_secret_key":   "stripe",
	"stripe_test_key":     "stripe",
	"slack_token":         "slack",
	"slack_webhook":       "slack",
	"openai_api_key":      "openai",
	"anthropic_api_key":   "openai", // same console-revoke shape
	"gcp_api_key":         "gcp",
	"gcp_service_account": "gcp",
}

var providerSteps = map[string][]string{
	"aws": {
		"AWS Console: IAM > Users > Security Credentials > Deactivate the key",
		"Create a new access key and update applications",
		"Review CloudTrail logs for unauthorized access",
	},
	"github": {
		"GitHub: Settings > Developer settings > Personal access tokens > Revoke",
		"Generate a new token with minimal required scopes",
		"Review repository access and audit logs",
	},
	"stripe": {
		"Stripe Dashboard: Developers > API keys > Roll key",
		"Update all applications using this key",
		"Review Stripe logs for suspicious activity",
	},
	"slack": {
		"Slack: App settings > OAuth & Permissions > Regenerate token",
		"Review bot activity and workspace access logs",
	},
	"openai": {
		"Provider console: delete the key and create a new one",
		"Review usage logs for unexpected API calls",
	},
	"gcp": {
		"GCP Console: APIs & Services > Credentials > Delete the key",
		"Create a restricted replacement key",
		"Review Cloud Audit Logs for unexpected use",
	},
}

func remediation(def *registry.PatternDefinition, sev types.Severity) []string {
	if def.Category == types.CategorySecret {
		steps := []string{
			"Immediately revoke or rotate the exposed credential",
			"Remove the secret from source code",
			"Use environment variables or a secrets manager",
			"If committed to git, clean history with BFG or git filter-repo",
		}
		if p := providerByType[def.TypeID]; p != "" {
			steps = append(steps, providerSteps[p]...)
		}
		return steps
	}

	steps := []string{
		"Remove or encrypt the " + def.Name,
		"Implement access controls",
		"Add audit logging for access",
	}
	if def.TypeID == "ssn" {
		steps = append([]string{"URGENT: SSN requires immediate remediation"}, steps...)
	}
	if sev == types.SevCritical {
		steps = append(steps, "Treat as a reportable exposure until proven otherwise")
	}
	return steps
}
