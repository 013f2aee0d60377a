package findings

// Legacy severities, ordered from least to most severe. The order is used for
// query decomposition by severity.
const (
	SeverityInfo     = "INFO"
	SeverityMinor    = "MINOR"
	SeverityMajor    = "MAJOR"
	SeverityCritical = "CRITICAL"
	SeverityBlocker  = "BLOCKER"
)

// Severities lists every legacy severity.
func Severities() []string {
	return []string{SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker}
}

// Software qualities of the MQR taxonomy.
const (
	QualitySecurity        = "SECURITY"
	QualityReliability     = "RELIABILITY"
	QualityMaintainability = "MAINTAINABILITY"
)

// SoftwareQualities lists every MQR software quality.
func SoftwareQualities() []string {
	return []string{QualitySecurity, QualityReliability, QualityMaintainability}
}

var legacyToImpact = map[string]string{
	SeverityInfo:     "INFO",
	SeverityMinor:    "LOW",
	SeverityMajor:    "MEDIUM",
	SeverityCritical: "HIGH",
	SeverityBlocker:  "BLOCKER",
}

var impactToLegacy = map[string]string{
	"INFO":    SeverityInfo,
	"LOW":     SeverityMinor,
	"MEDIUM":  SeverityMajor,
	"HIGH":    SeverityCritical,
	"BLOCKER": SeverityBlocker,
}

var typeToQuality = map[Type]string{
	TypeBug:           QualityReliability,
	TypeVulnerability: QualitySecurity,
	TypeCodeSmell:     QualityMaintainability,
}

var qualityToType = map[string]Type{
	QualityReliability:     TypeBug,
	QualitySecurity:        TypeVulnerability,
	QualityMaintainability: TypeCodeSmell,
}

// ImpactSeverity converts a legacy severity into its MQR impact severity.
// Unknown severities map to themselves so a newer server vocabulary passes through.
func ImpactSeverity(legacy string) string {
	if impact, ok := legacyToImpact[legacy]; ok {
		return impact
	}
	return legacy
}

// LegacySeverity converts an MQR impact severity into its legacy severity.
func LegacySeverity(impact string) string {
	if legacy, ok := impactToLegacy[impact]; ok {
		return legacy
	}
	return impact
}

// QualityForType converts a legacy finding type into its MQR software quality.
// Hotspots have no quality counterpart and return "".
func QualityForType(t Type) string {
	return typeToQuality[t]
}

// TypeForQuality converts an MQR software quality into its legacy finding type.
func TypeForQuality(quality string) (Type, bool) {
	t, ok := qualityToType[quality]
	return t, ok
}
