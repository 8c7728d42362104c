package model

import "strings"

// CompanySize is the coarse size category of a prospect.
type CompanySize string

const (
	SizeStartup    CompanySize = "startup"
	SizeSMB        CompanySize = "smb"
	SizeMidmarket  CompanySize = "midmarket"
	SizeEnterprise CompanySize = "enterprise"
)

// Valid reports whether s is one of the four known categories.
func (s CompanySize) Valid() bool {
	switch s {
	case SizeStartup, SizeSMB, SizeMidmarket, SizeEnterprise:
		return true
	}
	return false
}

// ParseCompanySize normalizes a free-form size. Unknown values default to midmarket.
func ParseCompanySize(v string) CompanySize {
	s := CompanySize(strings.ToLower(strings.TrimSpace(v)))
	if s.Valid() {
		return s
	}
	return SizeMidmarket
}

// Bonus returns the size weight used by fallback scoring.
func (s CompanySize) Bonus() int {
	switch s {
	case SizeEnterprise:
		return 15
	case SizeMidmarket:
		return 10
	default:
		return 5
	}
}

// SignalType tags what kind of buying evidence a signal is.
type SignalType string

const (
	SignalFunding         SignalType = "funding"
	SignalHiring          SignalType = "hiring"
	SignalTechChange      SignalType = "techChange"
	SignalLeadership      SignalType = "leadership"
	SignalExpansion       SignalType = "expansion"
	SignalCompetitorChurn SignalType = "competitorChurn"
	SignalWebsiteVisit    SignalType = "websiteVisit"
	SignalG2Activity      SignalType = "g2Activity"
	SignalSocialMention   SignalType = "socialMention"
)

var signalTypes = []SignalType{
	SignalFunding, SignalHiring, SignalTechChange, SignalLeadership, SignalExpansion,
	SignalCompetitorChurn, SignalWebsiteVisit, SignalG2Activity, SignalSocialMention,
}

// SignalTypes lists every known signal type.
func SignalTypes() []SignalType {
	return append([]SignalType(nil), signalTypes...)
}

// ParseSignalType matches case-insensitively; unknown values become websiteVisit.
func ParseSignalType(v string) SignalType {
	v = strings.TrimSpace(v)
	for _, t := range signalTypes {
		if strings.EqualFold(string(t), v) {
			return t
		}
	}
	return SignalWebsiteVisit
}

// SignalStrength is the confidence tier of a signal.
type SignalStrength string

const (
	StrengthHigh   SignalStrength = "high"
	StrengthMedium SignalStrength = "medium"
	StrengthLow    SignalStrength = "low"
)

// ParseSignalStrength defaults to medium.
func ParseSignalStrength(v string) SignalStrength {
	switch s := SignalStrength(strings.ToLower(strings.TrimSpace(v))); s {
	case StrengthHigh, StrengthMedium, StrengthLow:
		return s
	}
	return StrengthMedium
}

// Department groups contacts by function.
type Department string

const (
	DeptSales       Department = "sales"
	DeptMarketing   Department = "marketing"
	DeptEngineering Department = "engineering"
	DeptOperations  Department = "operations"
	DeptExecutive   Department = "executive"
	DeptFinance     Department = "finance"
	DeptHR          Department = "hr"
)

// ParseDepartment defaults to executive.
func ParseDepartment(v string) Department {
	switch d := Department(strings.ToLower(strings.TrimSpace(v))); d {
	case DeptSales, DeptMarketing, DeptEngineering, DeptOperations, DeptExecutive, DeptFinance, DeptHR:
		return d
	}
	return DeptExecutive
}

// ContactPriority ranks contacts for outreach targeting.
type ContactPriority string

const (
	PriorityPrimary    ContactPriority = "primary"
	PrioritySecondary  ContactPriority = "secondary"
	PriorityInfluencer ContactPriority = "influencer"
)

// ParseContactPriority defaults to primary.
func ParseContactPriority(v string) ContactPriority {
	switch p := ContactPriority(strings.ToLower(strings.TrimSpace(v))); p {
	case PriorityPrimary, PrioritySecondary, PriorityInfluencer:
		return p
	}
	return PriorityPrimary
}

// Recommendation is the sales action tier derived from a score.
type Recommendation string

const (
	RecommendHot        Recommendation = "hot"
	RecommendWarm       Recommendation = "warm"
	RecommendNurture    Recommendation = "nurture"
	RecommendDisqualify Recommendation = "disqualify"
)

// Valid reports whether r is one of the four tiers.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendHot, RecommendWarm, RecommendNurture, RecommendDisqualify:
		return true
	}
	return false
}

// Recommend maps an overall score to a tier: >70 hot, >50 warm, >30 nurture.
func Recommend(overall int) Recommendation {
	switch {
	case overall > 70:
		return RecommendHot
	case overall > 50:
		return RecommendWarm
	case overall > 30:
		return RecommendNurture
	default:
		return RecommendDisqualify
	}
}

// Confidence is a coarse certainty tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence defaults to medium.
func ParseConfidence(v string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(v))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	}
	return ConfidenceMedium
}
