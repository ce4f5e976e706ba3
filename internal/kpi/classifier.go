package kpi

import "strings"

// PatternRule is one substring rule of the community-college table.
// TokenGuard restricts the match to a whitespace-separated token or a
// suffix of the normalized name.
type PatternRule struct {
	Pattern    string
	TokenGuard bool
}

// CommunityCollegePatterns are scanned in order after the exact-match set
var CommunityCollegePatterns = []PatternRule{
	{Pattern: "COMMUNITY COLLEGE"},
	{Pattern: "CC", TokenGuard: true},
	{Pattern: "TECHNICAL COLLEGE"},
	{Pattern: "JUNIOR COLLEGE"},
	{Pattern: "COMM COLL"},
	{Pattern: "COMM. COLLEGE"},
	{Pattern: "TECH COLLEGE"},
	{Pattern: "CITY COLLEGE"},
	{Pattern: "COUNTY COLLEGE"},
}

// KnownCommunityColleges are matched exactly after trimming and uppercasing.
// Most of them carry no pattern that would identify them.
var KnownCommunityColleges = []string{
	"MIAMI DADE COLLEGE",
	"VALENCIA COLLEGE",
	"BROWARD COLLEGE",
	"PALM BEACH STATE COLLEGE",
	"ST. PETERSBURG COLLEGE",
	"SANTA FE COLLEGE",
	"INDIAN RIVER STATE COLLEGE",
	"SEMINOLE STATE COLLEGE",
	"HILLSBOROUGH COMMUNITY COLLEGE",
	"LONE STAR COLLEGE",
	"DALLAS COLLEGE",
	"SAN JACINTO COLLEGE",
	"ALAMO COLLEGES",
	"SOUTH TEXAS COLLEGE",
	"COLLIN COLLEGE",
	"HOUSTON COMMUNITY COLLEGE",
	"AUSTIN COMMUNITY COLLEGE",
	"SANTA MONICA COLLEGE",
	"DE ANZA COLLEGE",
	"FOOTHILL COLLEGE",
	"MT. SAN ANTONIO COLLEGE",
	"EAST LOS ANGELES COLLEGE",
	"SANTA ROSA JUNIOR COLLEGE",
	"IVY TECH",
	"SINCLAIR COLLEGE",
	"TRI-C",
	"CUYAHOGA COMMUNITY COLLEGE",
	"COLUMBUS STATE",
	"MACOMB COMMUNITY COLLEGE",
	"JACKSON COLLEGE",
	"NOVA",
	"NORTHERN VIRGINIA COMMUNITY COLLEGE",
	"MONTGOMERY COLLEGE",
	"HOWARD COMMUNITY COLLEGE",
	"MARICOPA COMMUNITY COLLEGES",
	"RIO SALADO COLLEGE",
	"PIMA COMMUNITY COLLEGE",
	"SALT LAKE COMMUNITY COLLEGE",
	"PORTLAND COMMUNITY COLLEGE",
	"BELLEVUE COLLEGE",
	"NORTH SEATTLE COLLEGE",
	"HARPER COLLEGE",
	"COLLEGE OF DUPAGE",
	"CITY COLLEGES OF CHICAGO",
	"MADISON COLLEGE",
	"MILWAUKEE AREA TECHNICAL COLLEGE",
	"MINNEAPOLIS COLLEGE",
	"DES MOINES AREA COMMUNITY COLLEGE",
	"KIRKWOOD COMMUNITY COLLEGE",
	"FRONT RANGE COMMUNITY COLLEGE",
	"CENTRAL PIEDMONT COMMUNITY COLLEGE",
	"WAKE TECH",
	"TRIDENT TECHNICAL COLLEGE",
	"GREENVILLE TECHNICAL COLLEGE",
	"BUNKER HILL COMMUNITY COLLEGE",
	"LAGUARDIA COMMUNITY COLLEGE",
	"BOROUGH OF MANHATTAN COMMUNITY COLLEGE",
	"MIDDLESEX COLLEGE",
	"CCBC",
	"CCRI",
	"TCC",
	"HCC",
}

// InstitutionClassifier decides whether an institution name denotes a
// community college
type InstitutionClassifier struct {
	exact    map[string]struct{}
	patterns []PatternRule
}

// NewInstitutionClassifier builds a classifier from a rule table
func NewInstitutionClassifier(exact []string, patterns []PatternRule) *InstitutionClassifier {
	c := &InstitutionClassifier{
		exact:    make(map[string]struct{}, len(exact)),
		patterns: make([]PatternRule, len(patterns)),
	}
	for _, name := range exact {
		c.exact[normalizeName(name)] = struct{}{}
	}
	copy(c.patterns, patterns)
	return c
}

var defaultClassifier = NewInstitutionClassifier(KnownCommunityColleges, CommunityCollegePatterns)

// DefaultClassifier returns the classifier built from the standard table
func DefaultClassifier() *InstitutionClassifier {
	return defaultClassifier
}

// IsCommunityCollege applies the standard rule table
func IsCommunityCollege(name string) bool {
	return defaultClassifier.IsCommunityCollege(name)
}

// IsCommunityCollege reports whether name matches the exact set or any
// pattern rule
func (c *InstitutionClassifier) IsCommunityCollege(name string) bool {
	normalized := normalizeName(name)
	if normalized == "" {
		return false
	}

	if _, ok := c.exact[normalized]; ok {
		return true
	}

	for _, rule := range c.patterns {
		if rule.TokenGuard {
			if matchesToken(normalized, rule.Pattern) {
				return true
			}
			continue
		}
		if strings.Contains(normalized, rule.Pattern) {
			return true
		}
	}
	return false
}

// IsCollege is the looser "All Colleges" test and ignores the rule table
func IsCollege(name string) bool {
	return strings.Contains(strings.ToLower(name), "college")
}

func matchesToken(name, token string) bool {
	for _, field := range strings.Fields(name) {
		if field == token {
			return true
		}
	}
	return strings.HasSuffix(name, " "+token) || strings.HasSuffix(name, token)
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
