// Package catalog defines the closed set of recipe operations.
//
// The catalog is the vocabulary shared by the interpreter, which applies
// operations to an in-memory dataset, and the compiler, which renders them
// into a standalone pandas script. Both evaluators key their dispatch tables
// by Op; tests in those packages assert that every catalog entry is handled.
package catalog

// Version identifies the operation set. Bump it whenever an operation or a
// parameter default changes.
const Version = "2"

// Op is an operation identifier as submitted by clients.
type Op string

// Cleaning operations.
const (
	DropColumn         Op = "drop_column"
	DropDuplicates     Op = "drop_duplicates"
	DropOutliersZScore Op = "drop_outliers_zscore"
	DropOutliersManual Op = "drop_outliers_manual"
)

// Imputation operations.
const (
	FillNAMean    Op = "fill_na_mean"
	FillNAMedian  Op = "fill_na_median"
	FillNAMode    Op = "fill_na_mode"
	FillNAConst   Op = "fill_na_const"
	FillNAKNN     Op = "fill_na_knn"
	FillNAGroupBy Op = "fill_na_groupby"
)

// Date operations.
const (
	ExtractDateParts Op = "extract_date_parts"
)

// Math and transform operations.
const (
	BinNumeric         Op = "bin_numeric"
	LogTransform       Op = "log_transform"
	BoxCoxTransform    Op = "box_cox_transform"
	CreateInteraction  Op = "create_interaction"
	PolynomialFeatures Op = "polynomial_features"
)

// Scaling operations.
const (
	StandardScaler Op = "standard_scaler"
	MinMaxScaler   Op = "minmax_scaler"
	RobustScaler   Op = "robust_scaler"
	MaxAbsScaler   Op = "maxabs_scaler"
)

// Encoding operations.
const (
	OneHotEncode  Op = "one_hot_encode"
	LabelEncode   Op = "label_encode"
	OrdinalEncode Op = "ordinal_encode"
	TargetEncode  Op = "target_encode"
)

// Modeling operations. These only exist in exported scripts.
const (
	TrainLinearRegression   Op = "train_linear_regression"
	TrainLogisticRegression Op = "train_logistic_regression"
	TrainRandomForest       Op = "train_random_forest"
)

// Family groups operations for the UI and decides which script section an
// operation is rendered into.
type Family string

// Operation families.
const (
	FamilyCleaning   Family = "Cleaning"
	FamilyImputation Family = "Imputation"
	FamilyDates      Family = "Dates"
	FamilyMath       Family = "Math"
	FamilyScaling    Family = "Scaling"
	FamilyEncoding   Family = "Encoding"
	FamilyModeling   Family = "Modeling"
)

// ParamType tells the UI which form control to render.
type ParamType string

// Parameter types.
const (
	ParamColumn ParamType = "column_select"
	ParamNumber ParamType = "number"
	ParamText   ParamType = "text"
	ParamSelect ParamType = "select"
)

// Param describes one parameter of an operation.
type Param struct {
	Name    string    `json:"name"`
	Type    ParamType `json:"type"`
	Label   string    `json:"label"`
	Default any       `json:"default,omitempty"`
	Options []string  `json:"options,omitempty"`
}

// Operation is one catalog entry.
type Operation struct {
	ID       Op      `json:"id"`
	Label    string  `json:"label"`
	Category Family  `json:"category"`
	Params   []Param `json:"params"`
	// CompileOnly operations have no previewable effect on a table.
	CompileOnly bool `json:"compile_only,omitempty"`
}

// Param returns the named parameter schema.
func (o Operation) Param(name string) (Param, bool) {
	for _, p := range o.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// NeedsColumn reports whether the operation targets a single existing column.
func (o Operation) NeedsColumn() bool {
	switch o.ID {
	case DropDuplicates, CreateInteraction:
		return false
	}
	return true
}

var (
	operations []Operation
	byID       map[Op]Operation
)

func init() {
	operations = definitions()
	byID = make(map[Op]Operation, len(operations))
	for _, op := range operations {
		if _, dup := byID[op.ID]; dup {
			panic("catalog: duplicate operation " + string(op.ID))
		}
		byID[op.ID] = op
	}
}

// List returns the catalog in display order. The returned slice is a copy.
func List() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Lookup returns the operation registered under id.
func Lookup(id string) (Operation, bool) {
	op, ok := byID[Op(id)]
	return op, ok
}

// IDs returns every operation identifier in display order.
func IDs() []Op {
	ids := make([]Op, len(operations))
	for i, op := range operations {
		ids[i] = op.ID
	}
	return ids
}
