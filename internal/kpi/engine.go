package kpi

import (
	"strings"
	"time"

	"eventkpi/pkg/contracts/domain"
)

// SeniorKeywords mark a senior leader when found anywhere in the title
var SeniorKeywords = []string{"Chief", "VP", "President", "Director", "Head", "Founder", "Dean"}

// WomenGenders are the lowercased gender values counted as women
var WomenGenders = []string{"female", "woman", "f"}

// StartupMarkers are matched case-insensitively against the job classification
var StartupMarkers = []string{"Start Up/Growth Stage Company", "Corporate Enterprise"}

// USStateCodes is the 50 states plus DC
var USStateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
	"DC",
}

var institutionMarkers = map[domain.InstitutionType][]string{
	domain.InstitutionHigherEducation: {"he", "higher ed", "higher education"},
	domain.InstitutionK12:             {"k-12", "k12"},
}

var (
	seniorKeywordsLower = lowerAll(SeniorKeywords)
	startupMarkersLower = lowerAll(StartupMarkers)
	womenGenderSet      = toSet(WomenGenders)
	usStateSet          = toSet(USStateCodes)
)

// Compute derives the KPI snapshot of ds at cutoff using the standard
// institution classifier
func Compute(ds *domain.Dataset, cutoff time.Time, filters domain.Filters) domain.KpiSnapshot {
	return ComputeWith(DefaultClassifier(), ds, cutoff, filters)
}

// ComputeWith derives the KPI snapshot of ds at cutoff. Rows at or before
// cutoff form the base set. The job filter narrows the attendee-level KPIs
// and the institution filter narrows the institution-level KPIs; both
// start from the base set. A missing column yields zero for the KPIs
// that need it.
func ComputeWith(classifier *InstitutionClassifier, ds *domain.Dataset, cutoff time.Time, filters domain.Filters) domain.KpiSnapshot {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if ds == nil {
		return zeroSnapshot()
	}

	caps := ds.Capabilities
	base := InScope(ds, cutoff)
	people := FilterJob(caps, base, filters.JobClassification)
	institutions := FilterInstitutionType(caps, base, filters.InstitutionType)

	values := map[domain.KpiName]int{
		domain.KpiAttendees:         countAttendees(caps, people),
		domain.KpiSeniorLeaders:     0,
		domain.KpiWomenLeaders:      0,
		domain.KpiInstitutions:      0,
		domain.KpiCommunityColleges: 0,
		domain.KpiAllColleges:       0,
		domain.KpiUSStates:          0,
		domain.KpiStartups:          0,
		domain.KpiRegions:           0,
	}

	if caps.Has(domain.FieldTitle) {
		seniors := 0
		women := 0
		for _, rec := range people {
			if !IsSeniorTitle(rec.Title) {
				continue
			}
			seniors++
			if caps.Has(domain.FieldGender) && IsWoman(rec.Gender) {
				women++
			}
		}
		values[domain.KpiSeniorLeaders] = seniors
		values[domain.KpiWomenLeaders] = women
	}

	if caps.Has(domain.FieldCompany) {
		names := distinct(institutions, func(r domain.RegistrationRecord) string { return r.Company })
		values[domain.KpiInstitutions] = len(names)
		for _, name := range names {
			if classifier.IsCommunityCollege(name) {
				values[domain.KpiCommunityColleges]++
			}
			if IsCollege(name) {
				values[domain.KpiAllColleges]++
			}
		}
	}

	if caps.Has(domain.FieldState) {
		codes := distinct(institutions, func(r domain.RegistrationRecord) string {
			return strings.ToUpper(strings.TrimSpace(r.State))
		})
		values[domain.KpiRegions] = len(codes)
		for _, code := range codes {
			if _, ok := usStateSet[code]; ok {
				values[domain.KpiUSStates]++
			}
		}
	}

	if caps.Has(domain.FieldJobClassification) {
		for _, rec := range people {
			if IsStartup(rec.JobClassification) {
				values[domain.KpiStartups]++
			}
		}
	}

	entries := make([]domain.KpiEntry, 0, len(domain.KpiOrder))
	for _, name := range domain.KpiOrder {
		entries = append(entries, domain.KpiEntry{Name: name, Value: values[name]})
	}
	return domain.NewKpiSnapshot(entries)
}

// InScope returns the records with a timestamp at or before cutoff
func InScope(ds *domain.Dataset, cutoff time.Time) []domain.RegistrationRecord {
	if ds == nil {
		return nil
	}
	out := make([]domain.RegistrationRecord, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if rec.Timestamp != nil && !rec.Timestamp.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterJob keeps records whose job classification equals job exactly.
// An empty job keeps everything. Without the column nothing matches.
func FilterJob(caps domain.Capabilities, records []domain.RegistrationRecord, job string) []domain.RegistrationRecord {
	if job == "" {
		return records
	}
	if !caps.Has(domain.FieldJobClassification) {
		return nil
	}
	var out []domain.RegistrationRecord
	for _, rec := range records {
		if rec.JobClassification == job {
			out = append(out, rec)
		}
	}
	return out
}

// FilterInstitutionType keeps records whose job classification contains
// one of the bucket markers. All and the empty bucket keep everything.
func FilterInstitutionType(caps domain.Capabilities, records []domain.RegistrationRecord, t domain.InstitutionType) []domain.RegistrationRecord {
	markers, ok := institutionMarkers[t]
	if !ok {
		return records
	}
	if !caps.Has(domain.FieldJobClassification) {
		return nil
	}
	var out []domain.RegistrationRecord
	for _, rec := range records {
		if containsAny(strings.ToLower(rec.JobClassification), markers) {
			out = append(out, rec)
		}
	}
	return out
}

// IsSeniorTitle reports whether title contains a senior keyword
func IsSeniorTitle(title string) bool {
	return containsAny(strings.ToLower(title), seniorKeywordsLower)
}

// IsWoman reports whether gender is one of the counted values
func IsWoman(gender string) bool {
	_, ok := womenGenderSet[strings.ToLower(strings.TrimSpace(gender))]
	return ok
}

// IsStartup reports whether a job classification marks a startup
func IsStartup(job string) bool {
	return containsAny(strings.ToLower(job), startupMarkersLower)
}

// IsUSState reports whether code is a U.S. state or DC
func IsUSState(code string) bool {
	_, ok := usStateSet[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// PercentChange is (b-a)/a*100. With a zero baseline it is 0 when b is
// also zero and 100 otherwise.
func PercentChange(a, b int) float64 {
	if a > 0 {
		return float64(b-a) / float64(a) * 100
	}
	if b == 0 {
		return 0
	}
	return 100
}

// Deltas pairs two snapshots in display order
func Deltas(a, b domain.KpiSnapshot) []domain.KpiDelta {
	out := make([]domain.KpiDelta, 0, a.Len())
	for _, entry := range a.Entries() {
		bv := b.Value(entry.Name)
		out = append(out, domain.KpiDelta{
			Name:      entry.Name,
			A:         entry.Value,
			B:         bv,
			ChangePct: PercentChange(entry.Value, bv),
		})
	}
	return out
}

func countAttendees(caps domain.Capabilities, records []domain.RegistrationRecord) int {
	if !caps.Has(domain.FieldEmail) {
		return len(records)
	}
	n := 0
	for _, rec := range records {
		if rec.Email != "" {
			n++
		}
	}
	return n
}

func distinct(records []domain.RegistrationRecord, key func(domain.RegistrationRecord) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func zeroSnapshot() domain.KpiSnapshot {
	entries := make([]domain.KpiEntry, 0, len(domain.KpiOrder))
	for _, name := range domain.KpiOrder {
		entries = append(entries, domain.KpiEntry{Name: name})
	}
	return domain.NewKpiSnapshot(entries)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}
