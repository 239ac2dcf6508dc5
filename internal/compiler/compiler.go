// Package compiler renders recipes into standalone pandas scripts.
//
// Compilation is a pure function of the recipe: nothing is executed and no
// dataset is consulted, so a column the preview skipped still gets its
// fragment. Each catalog operation maps to one text/template fragment in
// fragments.tmpl; parameters are decoded through catalog.Decode so defaults
// match the interpreter.
package compiler

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/recipe"
)

//go:embed fragments.tmpl
var fragmentSource string

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"py":   pyLiteral,
	"num":  pyNumber,
	"fill": fillLiteral,
}).Parse(fragmentSource))

// Section is an ordered part of the generated script.
type Section int

// Script sections in output order.
const (
	SectionCleaning Section = iota
	SectionFeatures
	SectionEncoding
	SectionModeling
	numSections
)

var sectionTitles = [numSections]string{
	SectionCleaning: "Cleaning",
	SectionFeatures: "Feature engineering",
	SectionEncoding: "Encoding",
	SectionModeling: "Modeling",
}

func (s Section) String() string {
	if s < 0 || s >= numSections {
		return "unknown"
	}
	return sectionTitles[s]
}

// Import lines.
const (
	importNumpy        = "import numpy as np"
	importPandas       = "import pandas as pd"
	importScipy        = "from scipy import special, stats"
	importKNN          = "from sklearn.impute import KNNImputer"
	importStandard     = "from sklearn.preprocessing import StandardScaler"
	importMinMax       = "from sklearn.preprocessing import MinMaxScaler"
	importRobust       = "from sklearn.preprocessing import RobustScaler"
	importMaxAbs       = "from sklearn.preprocessing import MaxAbsScaler"
	importLabel        = "from sklearn.preprocessing import LabelEncoder"
	importOrdinal      = "from sklearn.preprocessing import OrdinalEncoder"
	importSplit        = "from sklearn.model_selection import train_test_split"
	importLinear       = "from sklearn.linear_model import LinearRegression"
	importLogistic     = "from sklearn.linear_model import LogisticRegression"
	importRandomForest = "from sklearn.ensemble import RandomForestClassifier, RandomForestRegressor"
)

// emitter describes how one operation is rendered.
type emitter struct {
	section Section
	imports []string
	params  func() any
}

func noParams() any { return nil }

var emitters = map[catalog.Op]emitter{
	catalog.DropColumn:         {SectionCleaning, nil, noParams},
	catalog.DropDuplicates:     {SectionCleaning, nil, noParams},
	catalog.DropOutliersZScore: {SectionCleaning, nil, func() any { return &catalog.ZScoreParams{} }},
	catalog.DropOutliersManual: {SectionCleaning, nil, func() any { return &catalog.CutoffParams{} }},

	catalog.FillNAMean:    {SectionCleaning, nil, noParams},
	catalog.FillNAMedian:  {SectionCleaning, nil, noParams},
	catalog.FillNAMode:    {SectionCleaning, nil, noParams},
	catalog.FillNAConst:   {SectionCleaning, nil, func() any { return &catalog.ConstParams{} }},
	catalog.FillNAKNN:     {SectionCleaning, []string{importKNN}, func() any { return &catalog.KNNParams{} }},
	catalog.FillNAGroupBy: {SectionCleaning, nil, func() any { return &catalog.GroupByParams{} }},

	catalog.ExtractDateParts: {SectionFeatures, nil, func() any { return &catalog.DateParams{} }},

	catalog.BinNumeric:         {SectionFeatures, nil, func() any { return &catalog.BinParams{} }},
	catalog.LogTransform:       {SectionFeatures, nil, noParams},
	catalog.BoxCoxTransform:    {SectionFeatures, []string{importScipy}, func() any { return &catalog.BoxCoxParams{} }},
	catalog.CreateInteraction:  {SectionFeatures, nil, func() any { return &catalog.InteractionParams{} }},
	catalog.PolynomialFeatures: {SectionFeatures, nil, func() any { return &catalog.PolyParams{} }},

	catalog.StandardScaler: {SectionFeatures, []string{importStandard}, noParams},
	catalog.MinMaxScaler:   {SectionFeatures, []string{importMinMax}, noParams},
	catalog.RobustScaler:   {SectionFeatures, []string{importRobust}, noParams},
	catalog.MaxAbsScaler:   {SectionFeatures, []string{importMaxAbs}, noParams},

	catalog.OneHotEncode:  {SectionEncoding, nil, noParams},
	catalog.LabelEncode:   {SectionEncoding, []string{importLabel}, noParams},
	catalog.OrdinalEncode: {SectionEncoding, []string{importOrdinal}, noParams},
	catalog.TargetEncode:  {SectionEncoding, nil, func() any { return &catalog.TargetParams{} }},

	catalog.TrainLinearRegression:   {SectionModeling, []string{importSplit, importLinear}, func() any { return &catalog.ModelParams{} }},
	catalog.TrainLogisticRegression: {SectionModeling, []string{importSplit, importLogistic}, func() any { return &catalog.ModelParams{} }},
	catalog.TrainRandomForest:       {SectionModeling, []string{importSplit, importRandomForest}, func() any { return &catalog.ModelParams{} }},
}

// fragment is the data handed to a fragment template.
type fragment struct {
	Col  string // target column as a Python literal
	Name string // raw target column name
	P    any
}

// Script is a compiled recipe.
type Script struct {
	imports  map[string]bool
	sections [numSections][]string
}

// Compile renders every recognized step of r. Unknown operations are left
// out; Compile never fails.
func Compile(r *recipe.Recipe) *Script {
	s := &Script{imports: map[string]bool{importNumpy: true, importPandas: true}}
	if r == nil {
		return s
	}
	for i, step := range r.Steps {
		em, ok := emitters[step.Op()]
		if !ok {
			continue
		}
		for _, imp := range em.imports {
			s.imports[imp] = true
		}
		s.sections[em.section] = append(s.sections[em.section], render(i+1, step, em))
	}
	return s
}

func render(n int, step recipe.Step, em emitter) string {
	name := step.TargetColumn()
	data := fragment{Col: pyString(name), Name: name}

	var note string
	if p := em.params(); p != nil {
		if err := catalog.Decode(step.Op(), step.Params, p); err != nil {
			note = " (invalid parameters, defaults used)"
			p = em.params()
			_ = catalog.Decode(step.Op(), nil, p)
		}
		data.P = p
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Step %d: %s%s\n", n, step.Label(), note)
	if err := fragments.ExecuteTemplate(&buf, step.Operation, data); err != nil {
		fmt.Fprintf(&buf, "# could not render %s: %v", step.Operation, err)
	}
	return buf.String()
}

// Imports returns the de-duplicated import lines in sorted order.
func (s *Script) Imports() []string {
	out := make([]string, 0, len(s.imports))
	for imp := range s.imports {
		out = append(out, imp)
	}
	slices.Sort(out)
	return out
}

// Section returns the fragments rendered into sec, in recipe order.
func (s *Script) Section(sec Section) []string {
	if sec < 0 || sec >= numSections {
		return nil
	}
	return slices.Clone(s.sections[sec])
}

// Requirements returns the pip packages needed by the imports in use.
func (s *Script) Requirements() []string {
	seen := make(map[string]bool)
	var out []string
	for _, imp := range s.Imports() {
		pkg := requirementFor(imp)
		if pkg == "" || seen[pkg] {
			continue
		}
		seen[pkg] = true
		out = append(out, pkg)
	}
	slices.Sort(out)
	return out
}

var requirementPrefixes = []struct {
	module, pkg string
}{
	{"numpy", "numpy"},
	{"pandas", "pandas"},
	{"scipy", "scipy"},
	{"sklearn", "scikit-learn"},
}

func requirementFor(imp string) string {
	fields := strings.Fields(imp)
	if len(fields) < 2 {
		return ""
	}
	root, _, _ := strings.Cut(fields[1], ".")
	for _, r := range requirementPrefixes {
		if root == r.module {
			return r.pkg
		}
	}
	return ""
}

// Code assembles the full script.
func (s *Script) Code() string {
	var b strings.Builder
	b.WriteString("# Generated by Prima. Reproduces the preview recipe with pandas.\n")
	fmt.Fprintf(&b, "# Operation catalog version %s.\n\n", catalog.Version)
	for _, imp := range s.Imports() {
		b.WriteString(imp)
		b.WriteByte('\n')
	}
	b.WriteString("\nDATA_PATH = 'dataset.csv'\n")
	b.WriteString("OUTPUT_PATH = 'processed_data.csv'\n\n")
	b.WriteString("df = pd.read_csv(DATA_PATH)\n")

	for sec := SectionCleaning; sec < numSections; sec++ {
		if len(s.sections[sec]) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n# --- %s ---\n", sec)
		b.WriteString(strings.Join(s.sections[sec], "\n\n"))
		b.WriteByte('\n')
	}

	b.WriteString("\ndf.to_csv(OUTPUT_PATH, index=False)\n")
	b.WriteString("print(f'Saved {len(df)} rows to {OUTPUT_PATH}')\n")
	return b.String()
}

// Export is the payload returned to clients that download a script.
type Export struct {
	Status         string   `json:"status"`
	Filename       string   `json:"filename"`
	Code           string   `json:"code"`
	Requirements   []string `json:"requirements"`
	InstallCommand string   `json:"install_command"`
}

// Export packages the script for download.
func (s *Script) Export() Export {
	reqs := s.Requirements()
	return Export{
		Status:         "success",
		Filename:       "pipeline.py",
		Code:           s.Code(),
		Requirements:   reqs,
		InstallCommand: "pip install " + strings.Join(reqs, " "),
	}
}
