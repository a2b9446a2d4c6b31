package generate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSomeFailed is returned by Report.Err when at least one canister failed
var ErrSomeFailed = errors.New("some canisters failed")

// Status is the outcome for a single canister
type Status int

const (
	StatusGenerated Status = iota
	StatusBuildFailed
	StatusExtractFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusGenerated:
		return "generated"
	case StatusBuildFailed:
		return "build failed"
	case StatusExtractFailed:
		return "extraction failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is what happened to one canister
type Result struct {
	Canister string
	Status   Status
	Path     string
	Err      error
}

// OK reports whether the candid file was generated
func (r Result) OK() bool {
	return r.Status == StatusGenerated
}

// Report collects the results of a run, in processing order
type Report struct {
	Results []Result
}

func (r *Report) add(result Result) {
	r.Results = append(r.Results, result)
}

// Generated returns the names of canisters whose candid file was written
func (r *Report) Generated() []string {
	return r.names(func(res Result) bool { return res.OK() })
}

// Failed returns the names of canisters that did not produce a candid file
func (r *Report) Failed() []string {
	return r.names(func(res Result) bool { return !res.OK() })
}

func (r *Report) names(keep func(Result) bool) []string {
	var names []string
	for _, res := range r.Results {
		if keep(res) {
			names = append(names, res.Canister)
		}
	}
	return names
}

// Err returns nil when every canister succeeded
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d: %s", ErrSomeFailed, len(failed), len(r.Results), strings.Join(failed, ", "))
}
