package pipeline

// Category groups stage failures.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryExecution  Category = "execution"
	CategoryStage      Category = "stage"
	CategoryStore      Category = "store"
)

// Outcome is the tagged result of one stage. The orchestrator continues
// after either variant; only validate_sql gates what runs next.
type Outcome struct {
	failed   bool
	category Category
	reasons  []string
}

func Ok() Outcome {
	return Outcome{}
}

// Failed records one error per reason.
func Failed(category Category, reasons ...string) Outcome {
	return Outcome{failed: true, category: category, reasons: reasons}
}

func (o Outcome) IsFailed() bool {
	return o.failed
}

func (o Outcome) Category() Category {
	return o.category
}

func (o Outcome) Reasons() []string {
	return o.reasons
}
