// Package script parses and runs YAML scripts of persistent stack operations against an
// rcstack.Arena. Scripts name every stack version they create so that later steps can
// derive from, inspect or release it.
package script

import (
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"
)

const (
	OpNew     = "new"
	OpPrepend = "prepend"
	OpTail    = "tail"
	OpClone   = "clone"
	OpHead    = "head"
	OpIter    = "iter"
	OpRelease = "release"
	OpLive    = "live"
)

var (
	ErrUnknownOp        = errors.New("unknown operation")
	ErrMissingField     = errors.New("missing required field")
	ErrUnknownVersion   = errors.New("unknown stack version")
	ErrDuplicateVersion = errors.New("stack version already defined")
	ErrExpectation      = errors.New("expectation not met")
	ErrLeak             = errors.New("nodes still live after releasing every version")
)

// Step is a single operation. Which fields are required depends on Op.
type Step struct {
	Op   string `json:"op"`
	From string `json:"from,omitempty"`
	As   string `json:"as,omitempty"`

	// Value is the element pushed by a prepend.
	Value *string `json:"value,omitempty"`

	// Expect is the element a head step must observe. ExpectEmpty asserts the stack is empty
	// instead.
	Expect      *string `json:"expect,omitempty"`
	ExpectEmpty bool    `json:"expectEmpty,omitempty"`

	// ExpectSeq is the full top-to-bottom content an iter step must observe.
	ExpectSeq []string `json:"expectSeq,omitempty"`

	// ExpectCount is the number of live nodes a live step must observe.
	ExpectCount *int `json:"expectCount,omitempty"`
}

type Script struct {
	Steps []Step `json:"steps"`
}

// Parse decodes a YAML (or JSON) script and validates it.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names a known operation and carries the fields it needs.
// Whether the versions it refers to exist is only known while running.
func (s *Script) Validate() error {
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	var required []string
	switch s.Op {
	case OpNew:
		required = []string{"as"}
	case OpPrepend:
		required = []string{"from", "value", "as"}
	case OpTail, OpClone:
		required = []string{"from", "as"}
	case OpHead:
		required = []string{"from"}
		if s.Expect != nil && s.ExpectEmpty {
			return fmt.Errorf("%w: expect and expectEmpty are mutually exclusive", ErrExpectation)
		}
	case OpIter, OpRelease:
		required = []string{"from"}
	case OpLive:
		required = []string{"expectCount"}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, s.Op)
	}

	for _, field := range required {
		if !s.has(field) {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

func (s Step) has(field string) bool {
	switch field {
	case "from":
		return s.From != ""
	case "as":
		return s.As != ""
	case "value":
		return s.Value != nil
	case "expectCount":
		return s.ExpectCount != nil
	}
	return false
}
