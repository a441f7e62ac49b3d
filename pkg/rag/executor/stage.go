package executor

// Stage enumerates the pipeline's states. The correction loop is the
// single backward edge: VALIDATE may re-enter REWRITE until the attempt
// ceiling is reached.
type Stage int

const (
	StageRewrite Stage = iota
	StageRetrieve
	StageRerank
	StageGenerate
	StageValidate
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageRewrite:
		return "rewrite"
	case StageRetrieve:
		return "retrieve"
	case StageRerank:
		return "rerank"
	case StageGenerate:
		return "generate"
	case StageValidate:
		return "validate"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}
