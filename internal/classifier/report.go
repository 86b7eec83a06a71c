package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
)

// LabelMetrics holds per-label evaluation scores.
type LabelMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarizes a held-out evaluation.
type Report struct {
	Labels   []LabelMetrics // sorted by label
	Accuracy float64
	Total    int
}

// Evaluate predicts every row of test and scores the predictions.
func Evaluate(model domain.Classifier, test Dataset) (Report, error) {
	truePos := map[string]int{}
	predicted := map[string]int{}
	support := map[string]int{}
	correct := 0

	for i, row := range test.Features {
		got, err := model.Predict(row)
		if err != nil {
			return Report{}, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		want := test.Labels[i]
		support[want]++
		predicted[got]++
		if got == want {
			truePos[want]++
			correct++
		}
	}

	seen := map[string]struct{}{}
	for l := range support {
		seen[l] = struct{}{}
	}
	for l := range predicted {
		seen[l] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	r := Report{Total: test.Len()}
	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}
	for _, l := range labels {
		m := LabelMetrics{
			Label:     l,
			Precision: ratio(truePos[l], predicted[l]),
			Recall:    ratio(truePos[l], support[l]),
			Support:   support[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Labels = append(r.Labels, m)
	}
	return r, nil
}

// String renders the report as a fixed-width table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Labels {
		fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "\n%12s %32.2f %10d\n", "accuracy", r.Accuracy, r.Total)
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
