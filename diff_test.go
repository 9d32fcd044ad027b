package varsel

import (
	"reflect"
	"testing"

	"github.com/albertocavalcante/go-varsel/model"
)

func resultOf(sels ...Selection) *Result {
	return &Result{Selections: sels}
}

func sel(id string, candidates ...string) Selection {
	return Selection{Component: model.MustComponentID(id), Candidates: candidates, Kind: model.KindVariant}
}

func TestDiffResultsNilInputs(t *testing.T) {
	tests := []struct {
		name     string
		old, new *Result
	}{
		{"both nil", nil, nil},
		{"old nil", nil, &Result{}},
		{"new nil", &Result{}, nil},
		{"both empty", &Result{}, &Result{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := DiffResults(tt.old, tt.new)
			if diff == nil || !diff.IsEmpty() {
				t.Errorf("DiffResults() = %+v, want empty diff", diff)
			}
		})
	}
}

func TestDiffResults(t *testing.T) {
	old := resultOf(
		sel("org:a:1.0", "runtime"),
		sel("org:b:2.0", "runtime"),
		sel("org:c:1.5", "runtime"),
		sel("org:d:1.0", "api"),
		sel("org:gone:1.0", "runtime"),
	)
	new := resultOf(
		sel("org:a:1.0", "runtime"),
		sel("org:b:2.1", "runtime"),
		sel("org:c:1.5-rc1", "runtime"),
		sel("org:d:1.0", "runtime"),
		sel("org:new:3.0", "jvm"),
		sel("org:also:0.1", "runtime"),
	)

	diff := DiffResults(old, new)

	wantAdded := []ComponentChange{
		{Module: "org:also", Version: "0.1", Candidates: []string{"runtime"}},
		{Module: "org:new", Version: "3.0", Candidates: []string{"jvm"}},
	}
	if !reflect.DeepEqual(diff.Added, wantAdded) {
		t.Errorf("Added = %+v, want %+v", diff.Added, wantAdded)
	}
	wantRemoved := []ComponentChange{{Module: "org:gone", Version: "1.0", Candidates: []string{"runtime"}}}
	if !reflect.DeepEqual(diff.Removed, wantRemoved) {
		t.Errorf("Removed = %+v, want %+v", diff.Removed, wantRemoved)
	}
	wantUp := []VersionChange{{Module: "org:b", OldVersion: "2.0", NewVersion: "2.1"}}
	if !reflect.DeepEqual(diff.Upgraded, wantUp) {
		t.Errorf("Upgraded = %+v, want %+v", diff.Upgraded, wantUp)
	}
	wantDown := []VersionChange{{Module: "org:c", OldVersion: "1.5", NewVersion: "1.5-rc1"}}
	if !reflect.DeepEqual(diff.Downgraded, wantDown) {
		t.Errorf("Downgraded = %+v, want %+v", diff.Downgraded, wantDown)
	}
	wantRe := []CandidateChange{{Module: "org:d", Version: "1.0", OldCandidates: []string{"api"}, NewCandidates: []string{"runtime"}}}
	if !reflect.DeepEqual(diff.Reselected, wantRe) {
		t.Errorf("Reselected = %+v, want %+v", diff.Reselected, wantRe)
	}
	if diff.TotalChanges() != 6 {
		t.Errorf("TotalChanges() = %d, want 6", diff.TotalChanges())
	}
}

func TestDiffResultsIgnoresCandidateOrder(t *testing.T) {
	old := resultOf(sel("org:a:1.0", "api", "runtime"))
	new := resultOf(sel("org:a:1.0", "runtime", "api"))
	if diff := DiffResults(old, new); !diff.IsEmpty() {
		t.Errorf("DiffResults() = %+v, want empty", diff)
	}
}
