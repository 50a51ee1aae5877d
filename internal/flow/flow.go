// Package flow models the conversation flows of the messaging side as
// explicit state machines: registration, profile edit and browsing.
//
// A Session is plain data so it can be stored between messages. Machine
// advances it one user input at a time and never touches storage; the
// caller persists the resulting profile.Update and runs browse actions.
package flow

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/leomatch/internal/profile"
)

type Flow string

const (
	Registration Flow = "registration"
	ProfileEdit  Flow = "profile_edit"
	Browsing     Flow = "browsing"
)

type Step string

const (
	// registration
	StepPhoto           Step = "photo"
	StepDescription     Step = "description"
	StepContact         Step = "contact"
	StepGender          Step = "gender"
	StepPreferredGender Step = "preferred_gender"
	StepCountry         Step = "country"
	StepCity            Step = "city"

	// profile edit
	StepChooseField Step = "choose_field"
	StepFieldValue  Step = "field_value"

	// browsing
	StepViewing Step = "viewing"

	StepDone Step = "done"
)

// Action is what a browsing input asks the caller to do.
type Action string

const (
	ActionNone      Action = ""
	ActionLike      Action = "like"
	ActionSuperLike Action = "superlike"
	ActionSkip      Action = "skip"
	ActionStop      Action = "stop"
)

// SkipInput leaves an optional field empty.
const SkipInput = "-"

var (
	ErrUnknownFlow  = errors.New("unknown flow")
	ErrInvalidInput = errors.New("invalid input")
	ErrFlowFinished = errors.New("flow already finished")
)

var registrationSteps = []Step{
	StepPhoto, StepDescription, StepContact, StepGender, StepPreferredGender, StepCountry, StepCity,
}

// stepField maps registration steps onto profile fields.
var stepField = map[Step]string{
	StepPhoto:           profile.FieldPhoto,
	StepDescription:     profile.FieldDescription,
	StepContact:         profile.FieldContact,
	StepGender:          profile.FieldGender,
	StepPreferredGender: profile.FieldPreferredGender,
	StepCountry:         profile.FieldCountry,
	StepCity:            profile.FieldCity,
}

// optionalFields may be skipped with SkipInput.
var optionalFields = []string{profile.FieldDescription, profile.FieldContact}

var browseActions = map[string]Action{
	"like":      ActionLike,
	"superlike": ActionSuperLike,
	"super":     ActionSuperLike,
	"skip":      ActionSkip,
	"next":      ActionSkip,
	"stop":      ActionStop,
	"exit":      ActionStop,
}

// Session is the stored state of one user's active flow.
type Session struct {
	Flow  Flow           `json:"flow"`
	Step  Step           `json:"step"`
	Draft profile.Update `json:"draft"`

	// profile edit
	Field string `json:"field,omitempty"`

	// browsing
	Token       string `json:"token,omitempty"`
	CandidateID uint64 `json:"candidate_id,omitempty"`
}

// Prompt describes what to ask the user next. Rendering is up to the caller.
type Prompt struct {
	Step     Step     `json:"step"`
	Field    string   `json:"field,omitempty"`
	Options  []string `json:"options,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// Result is the outcome of one Advance.
type Result struct {
	Session Session
	Prompt  Prompt
	Done    bool
	// Update is set when the flow produced fields to persist.
	Update *profile.Update
	Action Action
}

// Machine advances sessions. It is safe for concurrent use.
type Machine struct {
	validate *validator.Validate
}

func NewMachine() *Machine {
	return &Machine{validate: validator.New()}
}

// Start opens a new session of flow f at its first step.
func (m *Machine) Start(f Flow) (Session, Prompt, error) {
	var s Session
	switch f {
	case Registration:
		s = Session{Flow: f, Step: registrationSteps[0]}
	case ProfileEdit:
		s = Session{Flow: f, Step: StepChooseField}
	case Browsing:
		s = Session{Flow: f, Step: StepViewing}
	default:
		return Session{}, Prompt{}, fmt.Errorf("%w: %q", ErrUnknownFlow, f)
	}
	return s, PromptFor(s), nil
}

// Advance feeds one user input into s. s itself is not modified.
func (m *Machine) Advance(s Session, input string) (Result, error) {
	if s.Step == StepDone {
		return Result{}, ErrFlowFinished
	}
	input = strings.TrimSpace(input)

	switch s.Flow {
	case Registration:
		return m.advanceRegistration(s, input)
	case ProfileEdit:
		return m.advanceEdit(s, input)
	case Browsing:
		return advanceBrowsing(s, input)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFlow, s.Flow)
	}
}

func (m *Machine) advanceRegistration(s Session, input string) (Result, error) {
	field, ok := stepField[s.Step]
	if !ok {
		return Result{}, fmt.Errorf("%w: step %q is not part of registration", ErrInvalidInput, s.Step)
	}
	value, err := m.fieldValue(field, input)
	if err != nil {
		return Result{}, err
	}
	if err := s.Draft.SetField(field, value); err != nil {
		return Result{}, err
	}

	i := slices.Index(registrationSteps, s.Step)
	if i == len(registrationSteps)-1 {
		s.Step = StepDone
		draft := s.Draft
		return Result{Session: s, Done: true, Update: &draft}, nil
	}
	s.Step = registrationSteps[i+1]
	return Result{Session: s, Prompt: PromptFor(s)}, nil
}

func (m *Machine) advanceEdit(s Session, input string) (Result, error) {
	switch s.Step {
	case StepChooseField:
		field := strings.ToLower(input)
		if !slices.Contains(profile.Fields, field) {
			return Result{}, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, input)
		}
		s.Field = field
		s.Step = StepFieldValue
		return Result{Session: s, Prompt: PromptFor(s)}, nil

	case StepFieldValue:
		value, err := m.fieldValue(s.Field, input)
		if err != nil {
			return Result{}, err
		}
		var u profile.Update
		if err := u.SetField(s.Field, value); err != nil {
			return Result{}, err
		}
		s.Step = StepDone
		return Result{Session: s, Done: true, Update: &u}, nil
	}
	return Result{}, fmt.Errorf("%w: step %q is not part of profile edit", ErrInvalidInput, s.Step)
}

func advanceBrowsing(s Session, input string) (Result, error) {
	action, ok := browseActions[strings.ToLower(input)]
	if !ok {
		return Result{}, fmt.Errorf("%w: expected like, superlike, skip or stop", ErrInvalidInput)
	}
	if action == ActionStop {
		s.Step = StepDone
		return Result{Session: s, Done: true, Action: action}, nil
	}
	if s.CandidateID == 0 {
		return Result{}, fmt.Errorf("%w: no candidate on screen", ErrInvalidInput)
	}
	return Result{Session: s, Prompt: PromptFor(s), Action: action}, nil
}

// fieldValue validates input for field and returns the normalized value.
func (m *Machine) fieldValue(field, input string) (string, error) {
	optional := slices.Contains(optionalFields, field)
	if input == SkipInput && optional {
		return "", nil
	}
	if input == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}

	var u profile.Update
	if err := u.SetField(field, input); err != nil {
		return "", err
	}
	u.Normalize()
	if err := u.Validate(m.validate); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for _, v := range u.Columns() {
		return v.(string), nil
	}
	return "", nil
}

// Show records the candidate currently on screen and the resume position.
func (s *Session) Show(candidateID uint64, token string) {
	s.CandidateID = candidateID
	s.Token = token
}

// PromptFor returns what the session is waiting for.
func PromptFor(s Session) Prompt {
	switch s.Step {
	case StepGender:
		return Prompt{Step: s.Step, Field: profile.FieldGender, Options: []string{"m", "f", "other"}}
	case StepPreferredGender:
		return Prompt{Step: s.Step, Field: profile.FieldPreferredGender, Options: []string{"m", "f", "other", "any"}}
	case StepChooseField:
		return Prompt{Step: s.Step, Options: profile.Fields}
	case StepFieldValue:
		p := PromptFor(Session{Step: fieldStep(s.Field)})
		p.Step, p.Field = s.Step, s.Field
		return p
	case StepViewing:
		return Prompt{Step: s.Step, Options: []string{"like", "superlike", "skip", "stop"}}
	}
	field := stepField[s.Step]
	return Prompt{Step: s.Step, Field: field, Optional: slices.Contains(optionalFields, field)}
}

func fieldStep(field string) Step {
	for step, f := range stepField {
		if f == field {
			return step
		}
	}
	return ""
}
