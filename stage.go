package autoprice

// Stage is a step of a batch run.
type Stage int

// Run stages, in execution order. Failed is reachable from any stage.
const (
	StageValidating Stage = iota
	StageRendering
	StageConverting
	StageMerging
	StageCleaningUp
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageValidating: "validating",
	StageRendering:  "rendering",
	StageConverting: "converting",
	StageMerging:    "merging",
	StageCleaningUp: "cleaning up",
	StageDone:       "done",
	StageFailed:     "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no stage follows s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}
