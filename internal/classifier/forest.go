// Package classifier provides the swappable flood models behind
// domain.Classifier and domain.FloodPredictor.
//
// The bundled datasets are synthetic with unvalidated labels. They exist so the
// service has a fitted model to serve, not to make real predictions.
package classifier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
)

// DefaultTrees is the forest size used when none is configured.
const DefaultTrees = 25

// Forest adapts a golearn random forest to domain.Classifier. Every tree
// sees all feature columns on its bootstrap sample.
type Forest struct {
	trees int

	mu       sync.Mutex
	model    *ensemble.RandomForest
	template *base.DenseInstances // empty grid with the training attributes
	features []base.Attribute
	class    *base.CategoricalAttribute
}

var _ domain.Classifier = (*Forest)(nil)

// NewForest creates an unfitted forest. trees <= 0 selects DefaultTrees.
func NewForest(trees int) *Forest {
	if trees <= 0 {
		trees = DefaultTrees
	}
	return &Forest{trees: trees}
}

// Fit trains the forest on raw feature rows.
func (f *Forest) Fit(features [][]float64, labels []string) error {
	if len(features) == 0 {
		return errors.New("fit: empty training set")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("fit: %d feature rows but %d labels", len(features), len(labels))
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("fit: feature rows are empty")
	}
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("fit: row %d has %d features, want %d", i, len(row), width)
		}
	}

	attrs := make([]base.Attribute, width)
	for j := range attrs {
		attrs[j] = base.NewFloatAttribute(fmt.Sprintf("x%d", j))
	}
	class := base.NewCategoricalAttribute()
	class.SetName("label")

	grid, err := newGrid(attrs, class, len(features))
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	specs := base.ResolveAttributes(grid, append(attrs[:len(attrs):len(attrs)], class))
	for i, row := range features {
		for j, v := range row {
			grid.Set(specs[j], i, base.PackFloatToBytes(v))
		}
		grid.Set(specs[width], i, class.GetSysValFromString(labels[i]))
	}

	model := ensemble.NewRandomForest(f.trees, width)
	if err := model.Fit(grid); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	f.template = base.NewStructuralCopy(grid)
	f.features = attrs
	f.class = class
	return nil
}

// Predict returns the forest's majority-vote label for one feature row.
func (f *Forest) Predict(features []float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.model == nil {
		return "", domain.ErrNotFitted
	}
	if len(features) != len(f.features) {
		return "", fmt.Errorf("predict: got %d features, want %d", len(features), len(f.features))
	}

	row := base.NewStructuralCopy(f.template)
	if err := row.Extend(1); err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}
	specs := base.ResolveAttributes(row, f.features)
	for j, v := range features {
		row.Set(specs[j], 0, base.PackFloatToBytes(v))
	}

	out, err := f.model.Predict(row)
	if err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}
	return base.GetClass(out, 0), nil
}

func newGrid(attrs []base.Attribute, class base.Attribute, rows int) (*base.DenseInstances, error) {
	grid := base.NewDenseInstances()
	for _, a := range attrs {
		grid.AddAttribute(a)
	}
	grid.AddAttribute(class)
	if err := grid.AddClassAttribute(class); err != nil {
		return nil, err
	}
	if err := grid.Extend(rows); err != nil {
		return nil, err
	}
	return grid, nil
}
