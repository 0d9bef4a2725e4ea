package status

// LabelAction says what, if anything, to do with the failing-test
// label on a pull request.
type LabelAction int

const (
	LabelNone LabelAction = iota
	LabelApply
	LabelRemove
)

// Outcome is the engine's decision for one pull request. It is
// consumed immediately by the executor and never stored.
type Outcome struct {
	// Target is the column the pull request should move to, or
	// StatusNone when no rule matched.
	Target Logical
	// NoOp is set when the pull request already sits in the target
	// column; the status change is skipped but side effects such as
	// draft-marking still apply.
	NoOp bool
	// MarkDraft asks for the pull request to be flipped back to draft.
	MarkDraft bool
	// Label asks for the failing-test label to be applied or removed.
	Label LabelAction
}

// Engine decides, without side effects, what must change for a pull
// request. Exactly one target column is chosen per pull request; the
// rules are evaluated in a fixed precedence order and the first match
// wins:
//
//	conflicting > not against main > ready to deploy > needs review > in progress
//
// A column without a configured option id is never chosen. A pull
// request sitting in an ignored column is never touched at all.
type Engine struct {
	reg          *Registry
	markDrafts   bool
	failingLabel string
}

// NewEngine returns an engine over the given registry. markDrafts
// enables the draft-marking side effect; failingLabel names the label
// managed for failing required builds (empty disables label handling).
func NewEngine(reg *Registry, markDrafts bool, failingLabel string) *Engine {
	return &Engine{reg: reg, markDrafts: markDrafts, failingLabel: failingLabel}
}

// Decide evaluates one pull request. It is a pure function of the
// snapshot and the registry.
func (e *Engine) Decide(s *Snapshot) Outcome {
	if e.reg.IsIgnored(s.CurrentOptionID) {
		return Outcome{}
	}

	var out Outcome
	out.Target = e.target(s)

	if out.Target != StatusNone {
		opt, _ := e.reg.Option(out.Target)
		out.NoOp = opt.ID == s.CurrentOptionID

		switch out.Target {
		case StatusConflicting, StatusNotAgainstMain, StatusInProgress:
			// Moving back to a work column pulls the pull request out
			// of review; optionally flip it back to draft. Never touch
			// the flag for queued pull requests.
			if e.markDrafts && !s.IsDraft && !s.InMergeQueue {
				out.MarkDraft = true
			}
		}
	}

	out.Label = e.labelAction(s)
	return out
}

func (e *Engine) target(s *Snapshot) Logical {
	switch {
	case e.wantsConflicting(s):
		return StatusConflicting
	case e.wantsNotAgainstMain(s):
		return StatusNotAgainstMain
	case e.wantsReadyToDeploy(s):
		return StatusReadyToDeploy
	case e.wantsNeedsReview(s):
		return StatusNeedsReview
	case e.wantsInProgress(s):
		return StatusInProgress
	}
	return StatusNone
}

func (e *Engine) wantsConflicting(s *Snapshot) bool {
	if !e.reg.Enabled(StatusConflicting) {
		return false
	}
	// Conflicts against a non-default base resolve themselves when the
	// base branch lands, and queued pull requests are the queue's
	// problem.
	return s.AgainstDefaultBranch() && s.Conflicting() && !s.InMergeQueue
}

func (e *Engine) wantsNotAgainstMain(s *Snapshot) bool {
	return e.reg.Enabled(StatusNotAgainstMain) && s.DaisyChained()
}

func (e *Engine) wantsReadyToDeploy(s *Snapshot) bool {
	return e.reg.Enabled(StatusReadyToDeploy) && !s.IsDraft && s.InMergeQueue
}

func (e *Engine) wantsNeedsReview(s *Snapshot) bool {
	if !e.reg.Enabled(StatusNeedsReview) {
		return false
	}
	if s.Conflicting() || s.IsDraft || s.DaisyChained() {
		return false
	}
	// No point asking for review right before the queue merges it.
	if s.InMergeQueue && e.reg.Enabled(StatusReadyToDeploy) {
		return false
	}
	cur, ok := e.reg.LogicalOf(s.CurrentOptionID)
	if !ok {
		return false
	}
	switch cur {
	case StatusInProgress, StatusConflicting, StatusReadyToDeploy, StatusNotAgainstMain:
	default:
		return false
	}
	// Once approved, and with a ready-to-deploy column available, the
	// next step is deployment, not another review round. Without that
	// column an approved pull request still parks here.
	return !e.reg.Enabled(StatusReadyToDeploy) || !s.Approved()
}

func (e *Engine) wantsInProgress(s *Snapshot) bool {
	if !e.reg.Enabled(StatusInProgress) {
		return false
	}
	if s.InMergeQueue {
		return false
	}
	// When a conflicting column exists it owns conflicted pull
	// requests, and an unknown merge state is never assumed safe.
	if e.reg.Enabled(StatusConflicting) && (s.Conflicting() || s.UnknownMergeState()) {
		return false
	}
	if s.DaisyChained() && e.reg.Enabled(StatusNotAgainstMain) {
		return false
	}

	cur, _ := e.reg.LogicalOf(s.CurrentOptionID)
	if cur == StatusNeedsReview || cur == StatusReadyToDeploy {
		// Pull back for more work only when something is actually
		// wrong: failing required builds or a return to draft.
		return s.HasFailingRequiredBuilds() || s.IsDraft
	}
	return !s.Approved() || s.IsDraft
}

// labelAction manages the failing-test label independently of the
// status decision. At most one of apply/remove fires per run.
func (e *Engine) labelAction(s *Snapshot) LabelAction {
	if e.failingLabel == "" {
		return LabelNone
	}
	has := s.HasLabel(e.failingLabel)
	failing := s.HasFailingRequiredBuilds()
	switch {
	case failing && !has:
		return LabelApply
	case !failing && has:
		return LabelRemove
	}
	return LabelNone
}
