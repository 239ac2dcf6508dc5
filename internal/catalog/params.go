package catalog

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ZScoreParams configures drop_outliers_zscore.
type ZScoreParams struct {
	Threshold float64 `mapstructure:"threshold"`
}

// CutoffParams configures drop_outliers_manual.
type CutoffParams struct {
	Value float64 `mapstructure:"value"`
}

// ConstParams configures fill_na_const. Value keeps the client's loose type.
type ConstParams struct {
	Value any `mapstructure:"value"`
}

// KNNParams configures fill_na_knn.
type KNNParams struct {
	Neighbors int `mapstructure:"n_neighbors"`
}

// GroupByParams configures fill_na_groupby.
type GroupByParams struct {
	GroupCol string `mapstructure:"group_col"`
	Strategy string `mapstructure:"strategy"`
}

// DateParams configures extract_date_parts.
type DateParams struct {
	DropOriginal bool `mapstructure:"drop_original"`
}

// Preview limits on parameters that multiply the work of a step. The
// exported script is not limited.
const (
	MaxBins       = 1000
	MaxPolyDegree = 10
)

// BinParams configures bin_numeric.
type BinParams struct {
	Bins     int    `mapstructure:"bins"`
	Strategy string `mapstructure:"strategy"`
}

// BoxCoxParams configures box_cox_transform.
type BoxCoxParams struct {
	Threshold float64 `mapstructure:"threshold"`
}

// InteractionParams configures create_interaction.
type InteractionParams struct {
	Col1    string `mapstructure:"col1"`
	Col2    string `mapstructure:"col2"`
	MathOp  string `mapstructure:"math_op"`
	NewName string `mapstructure:"new_name"`
}

var operatorWords = map[string]string{
	"+": "plus",
	"-": "minus",
	"*": "times",
	"/": "div",
}

// ValidOperator reports whether MathOp is one of + - * /.
func (p InteractionParams) ValidOperator() bool {
	_, ok := operatorWords[p.MathOp]
	return ok
}

// OutputName returns NewName, or a name derived from the operands.
func (p InteractionParams) OutputName() string {
	if p.NewName != "" {
		return p.NewName
	}
	word, ok := operatorWords[p.MathOp]
	if !ok {
		word = "op"
	}
	return p.Col1 + "_" + word + "_" + p.Col2
}

// PolyParams configures polynomial_features.
type PolyParams struct {
	Degree int `mapstructure:"degree"`
}

// TargetParams configures target_encode.
type TargetParams struct {
	TargetCol string `mapstructure:"target_col"`
}

// ModelParams configures the train_* operations.
type ModelParams struct {
	TestSize    float64 `mapstructure:"test_size"`
	RandomState int     `mapstructure:"random_state"`
	Task        string  `mapstructure:"task"`
	Estimators  int     `mapstructure:"n_estimators"`
}

// Decode overlays raw step parameters on the catalog defaults for op and
// decodes the result into out. Values are weakly typed, so "5" fills an int
// field and "True" fills a bool field. Nil raw values keep the default.
func Decode(op Op, raw map[string]any, out any) error {
	merged := make(map[string]any)
	if def, ok := byID[op]; ok {
		for _, p := range def.Params {
			if p.Default != nil {
				merged[p.Name] = p.Default
			}
		}
	}
	for k, v := range raw {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			if _, hasDefault := merged[k]; hasDefault {
				continue
			}
		}
		merged[k] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("catalog: building decoder for %s: %w", op, err)
	}
	if err := dec.Decode(merged); err != nil {
		return fmt.Errorf("catalog: invalid parameters for %s: %w", op, err)
	}
	return nil
}
