package domain

// AccessDecision is the evaluator's answer to an access request.
// A nil decision is treated as a denial.
type AccessDecision struct {
	Allowed  bool
	PolicyID int64 // policy that produced the decision, 0 when none
}

// RowFilterResult is the evaluator's answer to a row filter lookup.
// When Enabled is false no filter is applied and the table is fully visible.
type RowFilterResult struct {
	Enabled    bool
	FilterExpr string
	PolicyID   int64
}

// MaskTypeDef describes a mask type known to the policy store. The
// transformer template may reference the {col} and {type} placeholders.
type MaskTypeDef struct {
	Name        string
	Transformer string
}

// DataMaskResult is the evaluator's answer to a column mask lookup.
type DataMaskResult struct {
	Enabled     bool
	MaskType    string
	MaskTypeDef *MaskTypeDef
	MaskedValue *string
	PolicyID    int64
}

// Mask type sentinels with fixed transformer semantics.
const (
	MaskTypeNull   = "MASK_NULL"
	MaskTypeCustom = "CUSTOM"
)

// Transformer template placeholders substituted at mask resolution time.
const (
	MaskTokenColumn = "{col}"
	MaskTokenType   = "{type}"
)

// ViewExpression is a row filter or column mask expression handed back to
// the engine, bound to the identity and table scope it was produced for.
type ViewExpression struct {
	Identity   string
	Catalog    string
	Schema     string
	Expression string
}
