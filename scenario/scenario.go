// Package scenario runs scripted state graphs described in YAML.
//
// A scenario declares root and derived states, then a list of steps that
// update or tear down states and assert on the resulting values. Running a
// scenario records every lifecycle callback in order, which makes the
// propagation order of the engine visible and comparable across runs.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted state graph.
type Scenario struct {
	// Name identifies the scenario. Load defaults it to the file name.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// States declares the graph. A state may only reference states declared
	// before it.
	States []StateSpec `yaml:"states"`

	// Steps run in order after the graph is built.
	Steps []Step `yaml:"steps"`
}

// StateSpec declares one state. Exactly one of Root, Map, or Combine is set.
type StateSpec struct {
	Name    string       `yaml:"name"`
	Label   string       `yaml:"label,omitempty"`
	Root    any          `yaml:"root,omitempty"`
	Map     *MapSpec     `yaml:"map,omitempty"`
	Combine *CombineSpec `yaml:"combine,omitempty"`
}

// MapSpec derives a state from one upstream.
type MapSpec struct {
	From string `yaml:"from"`
	Op   string `yaml:"op"`
	Arg  any    `yaml:"arg,omitempty"`
}

// CombineSpec derives a state from two upstreams.
type CombineSpec struct {
	A  string `yaml:"a"`
	B  string `yaml:"b"`
	Op string `yaml:"op"`
}

// Step is one scripted action followed by optional expectations.
// Update and Teardown are mutually exclusive; a step with neither only checks
// expectations.
type Step struct {
	Update   string `yaml:"update,omitempty"`
	Value    any    `yaml:"value,omitempty"`
	Teardown string `yaml:"teardown,omitempty"`

	// Expect maps state names to their expected values after the step.
	Expect map[string]any `yaml:"expect,omitempty"`

	// ExpectError names the error the update must fail with.
	// Supported: "passive".
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectTornDown lists states that must be torn down after the step.
	ExpectTornDown []string `yaml:"expect_torn_down,omitempty"`
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid scenario")

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names, references, and operations.
func (sc *Scenario) Validate() error {
	if len(sc.States) == 0 {
		return fmt.Errorf("%w: no states declared", ErrInvalid)
	}
	declared := make(map[string]bool, len(sc.States))
	ref := func(owner, name string) error {
		if name == "" {
			return fmt.Errorf("%w: state %q: missing upstream", ErrInvalid, owner)
		}
		if !declared[name] {
			return fmt.Errorf("%w: state %q: unknown upstream %q", ErrInvalid, owner, name)
		}
		return nil
	}

	for i, spec := range sc.States {
		if spec.Name == "" {
			return fmt.Errorf("%w: state #%d: missing name", ErrInvalid, i+1)
		}
		if declared[spec.Name] {
			return fmt.Errorf("%w: duplicate state %q", ErrInvalid, spec.Name)
		}
		kinds := 0
		if spec.Root != nil {
			kinds++
		}
		if spec.Map != nil {
			kinds++
			if err := ref(spec.Name, spec.Map.From); err != nil {
				return err
			}
			if _, ok := mapOps[spec.Map.Op]; !ok {
				return fmt.Errorf("%w: state %q: unknown map op %q", ErrInvalid, spec.Name, spec.Map.Op)
			}
		}
		if spec.Combine != nil {
			kinds++
			if err := ref(spec.Name, spec.Combine.A); err != nil {
				return err
			}
			if err := ref(spec.Name, spec.Combine.B); err != nil {
				return err
			}
			if _, ok := combineOps[spec.Combine.Op]; !ok {
				return fmt.Errorf("%w: state %q: unknown combine op %q", ErrInvalid, spec.Name, spec.Combine.Op)
			}
		}
		if kinds != 1 {
			return fmt.Errorf("%w: state %q: exactly one of root, map, combine is required", ErrInvalid, spec.Name)
		}
		declared[spec.Name] = true
	}

	for i, step := range sc.Steps {
		n := i + 1
		if step.Update != "" && step.Teardown != "" {
			return fmt.Errorf("%w: step %d: update and teardown are mutually exclusive", ErrInvalid, n)
		}
		for _, name := range []string{step.Update, step.Teardown} {
			if name != "" && !declared[name] {
				return fmt.Errorf("%w: step %d: unknown state %q", ErrInvalid, n, name)
			}
		}
		for name := range step.Expect {
			if !declared[name] {
				return fmt.Errorf("%w: step %d: unknown state %q in expect", ErrInvalid, n, name)
			}
		}
		for _, name := range step.ExpectTornDown {
			if !declared[name] {
				return fmt.Errorf("%w: step %d: unknown state %q in expect_torn_down", ErrInvalid, n, name)
			}
		}
		if step.ExpectError != "" {
			if step.Update == "" {
				return fmt.Errorf("%w: step %d: expect_error requires update", ErrInvalid, n)
			}
			if _, ok := expectedErrors[step.ExpectError]; !ok {
				return fmt.Errorf("%w: step %d: unknown expect_error %q", ErrInvalid, n, step.ExpectError)
			}
		}
	}
	return nil
}
