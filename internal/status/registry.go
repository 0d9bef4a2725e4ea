package status

// Logical identifies one of the board columns the tool knows how to
// reason about. The zero value means "no column".
type Logical int

const (
	StatusNone Logical = iota
	StatusInProgress
	StatusNotAgainstMain
	StatusNeedsReview
	StatusReadyToDeploy
	StatusConflicting
)

func (l Logical) String() string {
	switch l {
	case StatusInProgress:
		return "in progress"
	case StatusNotAgainstMain:
		return "not against main"
	case StatusNeedsReview:
		return "needs review"
	case StatusReadyToDeploy:
		return "ready to deploy"
	case StatusConflicting:
		return "conflicting"
	}
	return "none"
}

// Option is one value of the board's single-select status field.
type Option struct {
	ID   string
	Name string
}

// Registry maps logical statuses to the board's opaque option ids and
// display names. It is built once per run and read-only afterwards.
type Registry struct {
	fieldName    string
	options      map[Logical]Option
	byID         map[string]Logical
	fieldOptions []Option
	ignoredIDs   map[string]struct{}
	ignoredNames []string
}

// logicalOrder fixes iteration order wherever we enumerate the five
// configurable columns.
var logicalOrder = []Logical{
	StatusInProgress,
	StatusNotAgainstMain,
	StatusNeedsReview,
	StatusReadyToDeploy,
	StatusConflicting,
}

// NewRegistry builds a registry from the configured option ids and the
// status field options fetched from the board. A configured id that is
// absent from fieldOptions keeps the id itself as its display name.
// Ignored ids that resolve to no known option name fall back to the
// single name "Ignored".
func NewRegistry(fieldName string, configured map[Logical]string, ignoredIDs []string, fieldOptions []Option) *Registry {
	nameByID := make(map[string]string, len(fieldOptions))
	for _, opt := range fieldOptions {
		nameByID[opt.ID] = opt.Name
	}

	r := &Registry{
		fieldName:    fieldName,
		options:      make(map[Logical]Option),
		byID:         make(map[string]Logical),
		fieldOptions: fieldOptions,
		ignoredIDs:   make(map[string]struct{}, len(ignoredIDs)),
	}

	for _, l := range logicalOrder {
		id := configured[l]
		if id == "" {
			continue
		}
		name, ok := nameByID[id]
		if !ok {
			name = id
		}
		r.options[l] = Option{ID: id, Name: name}
		r.byID[id] = l
	}

	for _, id := range ignoredIDs {
		if id == "" {
			continue
		}
		r.ignoredIDs[id] = struct{}{}
		if name, ok := nameByID[id]; ok {
			r.ignoredNames = append(r.ignoredNames, name)
		}
	}
	if len(r.ignoredNames) == 0 {
		r.ignoredNames = []string{"Ignored"}
	}

	return r
}

// FieldName returns the name of the single-select status field.
func (r *Registry) FieldName() string { return r.fieldName }

// Enabled reports whether the given logical status has a configured
// option id and may therefore be targeted.
func (r *Registry) Enabled(l Logical) bool {
	_, ok := r.options[l]
	return ok
}

// Option returns the configured option for a logical status.
func (r *Registry) Option(l Logical) (Option, bool) {
	opt, ok := r.options[l]
	return opt, ok
}

// LogicalOf maps an option id back to its logical status.
func (r *Registry) LogicalOf(optionID string) (Logical, bool) {
	if optionID == "" {
		return StatusNone, false
	}
	l, ok := r.byID[optionID]
	return l, ok
}

// IsIgnored reports whether the option id belongs to the ignored set.
// Pull requests sitting in an ignored column are never touched.
func (r *Registry) IsIgnored(optionID string) bool {
	if optionID == "" {
		return false
	}
	_, ok := r.ignoredIDs[optionID]
	return ok
}

// EnabledOptions returns the configured options in the order the board
// reported its field options; configured ids the board did not report
// come last, in logical order.
func (r *Registry) EnabledOptions() []Option {
	var enabled []Option
	seen := make(map[string]struct{})
	for _, opt := range r.fieldOptions {
		if _, ok := r.byID[opt.ID]; ok {
			enabled = append(enabled, opt)
			seen[opt.ID] = struct{}{}
		}
	}
	for _, l := range logicalOrder {
		opt, ok := r.options[l]
		if !ok {
			continue
		}
		if _, dup := seen[opt.ID]; !dup {
			enabled = append(enabled, opt)
		}
	}
	return enabled
}

// IgnoredNames returns the display names of the ignored options.
func (r *Registry) IgnoredNames() []string { return r.ignoredNames }
