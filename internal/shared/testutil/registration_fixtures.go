package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// RegistrationHeader is the header of the standard export fixture
var RegistrationHeader = []string{
	"Last Registration Date (GMT)",
	"Email Address",
	"Title",
	"My Gender is:",
	"Company Name",
	"Primary State/Prov. Code",
	"Job Classification",
}

// RegistrationRow is one fixture registration. Date uses YYYY-MM-DD.
type RegistrationRow struct {
	Date    string
	Email   string
	Title   string
	Gender  string
	Company string
	State   string
	Job     string
}

func (r RegistrationRow) cells() []string {
	return []string{r.Date, r.Email, r.Title, r.Gender, r.Company, r.State, r.Job}
}

// SampleRegistrations returns a small export for year with four
// registrations spread over January
func SampleRegistrations(year int) []RegistrationRow {
	d := func(day int) string { return fmt.Sprintf("%04d-01-%02d", year, day) }
	return []RegistrationRow{
		{Date: d(5), Email: "ana@parkland.edu", Title: "VP of Academic Affairs", Gender: "Female", Company: "Parkland CC", State: "IL", Job: "Higher Education"},
		{Date: d(9), Email: "bo@acme.com", Title: "Founder", Gender: "Male", Company: "Acme Labs", State: "CA", Job: "Start Up/Growth Stage Company"},
		{Date: d(14), Email: "cy@harper.edu", Title: "Dean", Gender: "woman", Company: "Harper College", State: "IL", Job: "Higher Education"},
		{Date: d(20), Email: "di@lincoln.k12.us", Title: "Teacher", Gender: "F", Company: "Lincoln High", State: "ON", Job: "K-12"},
	}
}

// RegistrationCSV renders rows as a comma separated export
func RegistrationCSV(rows []RegistrationRow) string {
	var b strings.Builder
	b.WriteString(csvLine(RegistrationHeader))
	for _, r := range rows {
		b.WriteString(csvLine(r.cells()))
	}
	return b.String()
}

// RegistrationRecords returns the header and rows as raw string records
func RegistrationRecords(rows []RegistrationRow) ([]string, [][]string) {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.cells()
	}
	header := make([]string, len(RegistrationHeader))
	copy(header, RegistrationHeader)
	return header, out
}

// WriteRegistrationCSV writes rows to name inside a test temp dir and
// returns the path
func WriteRegistrationCSV(t *testing.T, name string, rows []RegistrationRow) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(RegistrationCSV(rows)), 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

func csvLine(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		if strings.ContainsAny(c, ",\"\n") {
			c = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		quoted[i] = c
	}
	return strings.Join(quoted, ",") + "\n"
}
