// Command validate checks the genmock fixtures end to end: every request is
// schema-valid, every expected assessment matches a fresh scoring of its
// request, and the scores themselves agree with the IRID formulas.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -requests data/mock/requests.json \
//	  -assessments data/mock/assessments.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/jonboulle/clockwork"
)

const tolerance = 1e-9

// Reference village results the dashboards publish.
const (
	referenceIndex         = -0.000235926652
	referenceDisplay       = "0.000"
	referenceAdjustedIndex = -0.021938646652
	referenceAdjusted      = "-0.022"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	requestsPath := flag.String("requests", "", "path to the request fixture")
	assessmentsPath := flag.String("assessments", "", "path to the expected assessment fixture")
	flag.Parse()

	if *requestsPath == "" || *assessmentsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*requestsPath, *assessmentsPath); code != 0 {
		os.Exit(code)
	}
}

func run(requestsPath, assessmentsPath string) int {
	// Matches genmock so processed_at lines up.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.December, 3, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Village Risk Fixture Validation ===")
	fmt.Println()

	rawRequests, err := loadRaw(requestsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load requests: %v\n", err)
		return 1
	}
	assessments, err := loadJSON[domain.Assessment](assessmentsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load assessments: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateReference(),
		validateRequests(rawRequests),
		validateTransformation(rawRequests, assessments),
		validateFormulas(assessments),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d requests, %d assessments\n", len(rawRequests), len(assessments))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

func loadRaw(path string) ([]json.RawMessage, error) {
	return loadJSON[json.RawMessage](path)
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// validateReference pins the published Lembur Sawah results.
func validateReference() *phase {
	p := &phase{name: "Phase 1: Reference village"}
	ref := village.ReferenceProfile()

	r := domain.Score(ref.Input)
	if !floatEq(r.Index, referenceIndex) {
		p.errorf("index: got %.12f, want %.12f", r.Index, referenceIndex)
	}
	if got := domain.FormatIndex(r.Index); got != referenceDisplay {
		p.errorf("display: got %q, want %q", got, referenceDisplay)
	}
	if r.Band != domain.BandLow {
		p.errorf("band: got %s, want %s", r.Band, domain.BandLow)
	}

	_, adj := domain.ScoreAdjusted(ref.Input, *ref.Drivers)
	if !floatEq(adj.Index, referenceAdjustedIndex) {
		p.errorf("adjusted index: got %.12f, want %.12f", adj.Index, referenceAdjustedIndex)
	}
	if got := domain.FormatIndex(adj.Index); got != referenceAdjusted {
		p.errorf("adjusted display: got %q, want %q", got, referenceAdjusted)
	}
	return p
}

func validateRequests(raw []json.RawMessage) *phase {
	p := &phase{name: "Phase 2: Request schema"}
	v := schema.MustNew()
	for i, r := range raw {
		if err := v.Validate(schema.AssessmentRequest, r); err != nil {
			p.errorf("[%d] %v", i, err)
		}
	}
	return p
}

func validateTransformation(raw []json.RawMessage, assessments []domain.Assessment) *phase {
	p := &phase{name: "Phase 3: Transformation parity"}
	if len(raw) != len(assessments) {
		p.errorf("count: %d requests vs %d assessments", len(raw), len(assessments))
		return p
	}

	for i, r := range raw {
		req, err := domain.ParseRawEvent(domain.RawEvent{Value: r})
		if err != nil {
			p.errorf("[%d] %v", i, err)
			continue
		}
		compareAssessments(p, i, domain.BuildAssessment(req), &assessments[i])
	}
	return p
}

func compareAssessments(p *phase, i int, want domain.Assessment, got *domain.Assessment) {
	pf := func(format string, args ...any) {
		p.errorf("[%d] %s: "+format, append([]any{i, want.Village}, args...)...)
	}

	if got.ID != want.ID {
		pf("ID: got %s, want %s", got.ID, want.ID)
	}
	if !floatEq(got.Result.Index, want.Result.Index) {
		pf("index: got %g, want %g", got.Result.Index, want.Result.Index)
	}
	if got.Result.Band != want.Result.Band {
		pf("band: got %s, want %s", got.Result.Band, want.Result.Band)
	}
	if got.IndexDisplay != want.IndexDisplay {
		pf("display: got %q, want %q", got.IndexDisplay, want.IndexDisplay)
	}
	if !got.ProcessedAt.Equal(want.ProcessedAt) {
		pf("processed_at: got %s, want %s", got.ProcessedAt, want.ProcessedAt)
	}

	switch {
	case got.Adjusted == nil && want.Adjusted == nil:
	case got.Adjusted == nil || want.Adjusted == nil:
		pf("adjusted: presence mismatch (got %v, want %v)", got.Adjusted != nil, want.Adjusted != nil)
	default:
		if !floatEq(got.Adjusted.Hazard, want.Adjusted.Hazard) {
			pf("adjusted hazard: got %g, want %g", got.Adjusted.Hazard, want.Adjusted.Hazard)
		}
		if got.Adjusted.Result.Band != want.Adjusted.Result.Band {
			pf("adjusted band: got %s, want %s", got.Adjusted.Result.Band, want.Adjusted.Result.Band)
		}
	}
}

// validateFormulas recomputes each fixture score from its own inputs.
func validateFormulas(assessments []domain.Assessment) *phase {
	p := &phase{name: "Phase 4: Formula consistency"}
	for i := range assessments {
		a := &assessments[i]
		in := a.Input

		idx := domain.ComputeIndex(in.Exposure, in.Sensitivity, in.AdaptiveCapacity, in.Hazard)
		if !floatEq(a.Result.Index, idx) {
			p.errorf("[%d] index %g != formula %g", i, a.Result.Index, idx)
		}
		if b := domain.Classify(a.Result.Index); b != a.Result.Band {
			p.errorf("[%d] band %s != classified %s", i, a.Result.Band, b)
		}
		if a.Label != a.Result.Band.Label() {
			p.errorf("[%d] label %q != %q", i, a.Label, a.Result.Band.Label())
		}

		if a.Adjusted == nil {
			continue
		}
		d := a.Adjusted.Drivers
		h := domain.ComputeAdjustedHazard(in.Hazard, d.RainfallMM, d.DeforestationPct)
		if !floatEq(a.Adjusted.Hazard, h) {
			p.errorf("[%d] adjusted hazard %g != formula %g", i, a.Adjusted.Hazard, h)
		}
		if a.Adjusted.Hazard < in.Hazard {
			p.errorf("[%d] adjusted hazard %g below base %g", i, a.Adjusted.Hazard, in.Hazard)
		}
		if b := domain.Classify(a.Adjusted.Result.Index); b != a.Adjusted.Result.Band {
			p.errorf("[%d] adjusted band %s != classified %s", i, a.Adjusted.Result.Band, b)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}
