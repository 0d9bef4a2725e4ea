package status

import (
	"reflect"
	"testing"
)

func TestRegistryResolvesNamesFromBoard(t *testing.T) {
	reg := fullRegistry()

	opt, ok := reg.Option(StatusNeedsReview)
	if !ok {
		t.Fatal("needs review should be configured")
	}
	if opt.Name != "Needs review" {
		t.Errorf("name = %q, want %q", opt.Name, "Needs review")
	}
	if opt.ID != optNeedsReview {
		t.Errorf("id = %q, want %q", opt.ID, optNeedsReview)
	}
}

func TestRegistryEnabledOptionsPreserveBoardOrder(t *testing.T) {
	// Only a subset configured; enabled options must come back in the
	// order the board reported them, not configuration order.
	configured := map[Logical]string{
		StatusConflicting: optConflicting,
		StatusInProgress:  optInProgress,
		StatusNeedsReview: optNeedsReview,
	}
	reg := NewRegistry("Status", configured, nil, boardOptions)

	var names []string
	for _, opt := range reg.EnabledOptions() {
		names = append(names, opt.Name)
	}
	want := []string{"In progress", "Needs review", "Conflicting"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("enabled options = %v, want %v", names, want)
	}
}

func TestRegistryUnknownConfiguredIDKeepsID(t *testing.T) {
	configured := map[Logical]string{StatusInProgress: "id-not-on-board"}
	reg := NewRegistry("Status", configured, nil, boardOptions)

	opt, ok := reg.Option(StatusInProgress)
	if !ok {
		t.Fatal("in progress should be configured")
	}
	if opt.Name != "id-not-on-board" {
		t.Errorf("name = %q, want the raw id", opt.Name)
	}

	names := reg.EnabledOptions()
	if len(names) != 1 || names[0].ID != "id-not-on-board" {
		t.Errorf("enabled options = %v, want the unknown id appended", names)
	}
}

func TestRegistryIgnored(t *testing.T) {
	reg := fullRegistry()

	if !reg.IsIgnored(optIgnored) {
		t.Error("ignored id should be ignored")
	}
	if reg.IsIgnored(optInProgress) {
		t.Error("configured id should not be ignored")
	}
	if reg.IsIgnored("") {
		t.Error("absent status is not ignored")
	}
	if got := reg.IgnoredNames(); !reflect.DeepEqual(got, []string{"Ignored"}) {
		t.Errorf("ignored names = %v", got)
	}
}

func TestRegistryIgnoredNamesDefault(t *testing.T) {
	reg := NewRegistry("Status", allColumns(), []string{"id-unknown-to-board"}, boardOptions)
	if got := reg.IgnoredNames(); !reflect.DeepEqual(got, []string{"Ignored"}) {
		t.Errorf("ignored names = %v, want the default", got)
	}
	if !reg.IsIgnored("id-unknown-to-board") {
		t.Error("unresolvable ignored id must still be ignored")
	}
}

func TestRegistryLogicalOf(t *testing.T) {
	reg := fullRegistry()

	l, ok := reg.LogicalOf(optReadyToDeploy)
	if !ok || l != StatusReadyToDeploy {
		t.Errorf("LogicalOf = %v, %v", l, ok)
	}
	if _, ok := reg.LogicalOf("id-unknown"); ok {
		t.Error("unknown id should not resolve")
	}
	if _, ok := reg.LogicalOf(""); ok {
		t.Error("empty id should not resolve")
	}
}

func TestRegistryDisabledColumn(t *testing.T) {
	reg := registryWithout(StatusReadyToDeploy)

	if reg.Enabled(StatusReadyToDeploy) {
		t.Error("ready to deploy should be disabled")
	}
	if _, ok := reg.Option(StatusReadyToDeploy); ok {
		t.Error("disabled column must have no option")
	}
}
