package analyze

// steps.go - Run step classification

import "strings"

// Step names are free text like "Invoke dbt with `dbt build ...`". Only
// steps invoking these commands carry trustworthy model statuses; setup and
// teardown steps (clone, deps, source freshness) do not. Matching is
// case-sensitive on the literal command tokens.
const (
	runCommandToken   = "dbt run"
	buildCommandToken = "dbt build"
)

// Step is a classified run step.
type Step struct {
	Index int
	Name  string
}

// IsExecuteStep reports whether a step name denotes a dbt run or build
// invocation.
func IsExecuteStep(name string) bool {
	return strings.Contains(name, runCommandToken) || strings.Contains(name, buildCommandToken)
}

// ClassifySteps returns the authoritative execute steps, preserving their
// original order. An empty result means the caller must fall back to the
// run's default run_results artifact.
func ClassifySteps(steps []Step) []Step {
	var execute []Step
	for _, step := range steps {
		if IsExecuteStep(step.Name) {
			execute = append(execute, step)
		}
	}
	return execute
}
