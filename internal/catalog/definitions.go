package catalog

func column(label string) Param {
	return Param{Name: "col", Type: ParamColumn, Label: label}
}

func definitions() []Operation {
	return []Operation{
		// Cleaning
		{
			ID: DropColumn, Label: "Drop Column", Category: FamilyCleaning,
			Params: []Param{column("Column to Drop")},
		},
		{
			ID: DropDuplicates, Label: "Drop Duplicates", Category: FamilyCleaning,
			Params: []Param{},
		},
		{
			ID: DropOutliersZScore, Label: "Drop Outliers (Z-Score)", Category: FamilyCleaning,
			Params: []Param{
				column("Column"),
				{Name: "threshold", Type: ParamNumber, Label: "Threshold (std dev)", Default: 3},
			},
		},
		{
			ID: DropOutliersManual, Label: "Drop Outliers (Manual)", Category: FamilyCleaning,
			Params: []Param{
				column("Column"),
				{Name: "value", Type: ParamNumber, Label: "Cutoff Value (<)", Default: 0},
			},
		},

		// Imputation
		{
			ID: FillNAMean, Label: "Fill Missing (Mean)", Category: FamilyImputation,
			Params: []Param{column("Column")},
		},
		{
			ID: FillNAMedian, Label: "Fill Missing (Median)", Category: FamilyImputation,
			Params: []Param{column("Column")},
		},
		{
			ID: FillNAMode, Label: "Fill Missing (Mode)", Category: FamilyImputation,
			Params: []Param{column("Column")},
		},
		{
			ID: FillNAConst, Label: "Fill Missing (Constant)", Category: FamilyImputation,
			Params: []Param{
				column("Column"),
				{Name: "value", Type: ParamText, Label: "Value to Fill", Default: 0},
			},
		},
		{
			ID: FillNAKNN, Label: "Fill Missing (KNN)", Category: FamilyImputation,
			Params: []Param{
				column("Column"),
				{Name: "n_neighbors", Type: ParamNumber, Label: "Neighbors", Default: 5},
			},
		},
		{
			ID: FillNAGroupBy, Label: "Impute by Group (Advanced)", Category: FamilyImputation,
			Params: []Param{
				column("Target Column"),
				{Name: "group_col", Type: ParamColumn, Label: "Group By"},
				{Name: "strategy", Type: ParamSelect, Label: "Method", Options: []string{"mean", "median", "mode"}, Default: "median"},
			},
		},

		// Dates
		{
			ID: ExtractDateParts, Label: "Extract Date Parts", Category: FamilyDates,
			Params: []Param{
				column("Date Column"),
				{Name: "drop_original", Type: ParamSelect, Label: "Drop Original?", Options: []string{"True", "False"}, Default: "True"},
			},
		},

		// Math
		{
			ID: BinNumeric, Label: "Binning / Discretization", Category: FamilyMath,
			Params: []Param{
				column("Column"),
				{Name: "bins", Type: ParamNumber, Label: "Number of Bins", Default: 5},
				{Name: "strategy", Type: ParamSelect, Label: "Strategy", Options: []string{"quantile", "uniform"}, Default: "quantile"},
			},
		},
		{
			ID: LogTransform, Label: "Log Transform (Log1p)", Category: FamilyMath,
			Params: []Param{column("Column")},
		},
		{
			ID: BoxCoxTransform, Label: "Box-Cox Transform", Category: FamilyMath,
			Params: []Param{
				column("Column"),
				{Name: "threshold", Type: ParamNumber, Label: "Skew Threshold", Default: 0.5},
			},
		},
		{
			ID: CreateInteraction, Label: "Feature Interaction", Category: FamilyMath,
			Params: []Param{
				{Name: "col1", Type: ParamColumn, Label: "Column A"},
				{Name: "math_op", Type: ParamSelect, Label: "Operator", Options: []string{"+", "-", "*", "/"}, Default: "+"},
				{Name: "col2", Type: ParamColumn, Label: "Column B"},
				{Name: "new_name", Type: ParamText, Label: "New Column Name"},
			},
		},
		{
			ID: PolynomialFeatures, Label: "Polynomial Features", Category: FamilyMath,
			Params: []Param{
				column("Column"),
				{Name: "degree", Type: ParamNumber, Label: "Degree", Default: 2},
			},
		},

		// Scaling
		{
			ID: StandardScaler, Label: "Standard Scaler (Z-Score)", Category: FamilyScaling,
			Params: []Param{column("Column")},
		},
		{
			ID: MinMaxScaler, Label: "MinMax Scaler (0-1)", Category: FamilyScaling,
			Params: []Param{column("Column")},
		},
		{
			ID: RobustScaler, Label: "Robust Scaler (Outliers)", Category: FamilyScaling,
			Params: []Param{column("Column")},
		},
		{
			ID: MaxAbsScaler, Label: "MaxAbs Scaler", Category: FamilyScaling,
			Params: []Param{column("Column")},
		},

		// Encoding
		{
			ID: OneHotEncode, Label: "One-Hot Encoding", Category: FamilyEncoding,
			Params: []Param{column("Column")},
		},
		{
			ID: LabelEncode, Label: "Label Encoding", Category: FamilyEncoding,
			Params: []Param{column("Column")},
		},
		{
			ID: OrdinalEncode, Label: "Ordinal Encoding", Category: FamilyEncoding,
			Params: []Param{column("Column")},
		},
		{
			ID: TargetEncode, Label: "Target Encoding", Category: FamilyEncoding,
			Params: []Param{
				column("Categorical Column"),
				{Name: "target_col", Type: ParamColumn, Label: "Target Variable (e.g. SalePrice)"},
			},
		},

		// Modeling
		{
			ID: TrainLinearRegression, Label: "Train Linear Regression", Category: FamilyModeling, CompileOnly: true,
			Params: []Param{
				column("Target Column"),
				{Name: "test_size", Type: ParamNumber, Label: "Test Size", Default: 0.2},
				{Name: "random_state", Type: ParamNumber, Label: "Random Seed", Default: 42},
			},
		},
		{
			ID: TrainLogisticRegression, Label: "Train Logistic Regression", Category: FamilyModeling, CompileOnly: true,
			Params: []Param{
				column("Target Column"),
				{Name: "test_size", Type: ParamNumber, Label: "Test Size", Default: 0.2},
				{Name: "random_state", Type: ParamNumber, Label: "Random Seed", Default: 42},
			},
		},
		{
			ID: TrainRandomForest, Label: "Train Random Forest", Category: FamilyModeling, CompileOnly: true,
			Params: []Param{
				column("Target Column"),
				{Name: "task", Type: ParamSelect, Label: "Task", Options: []string{"classification", "regression"}, Default: "classification"},
				{Name: "n_estimators", Type: ParamNumber, Label: "Trees", Default: 100},
				{Name: "test_size", Type: ParamNumber, Label: "Test Size", Default: 0.2},
				{Name: "random_state", Type: ParamNumber, Label: "Random Seed", Default: 42},
			},
		},
	}
}
