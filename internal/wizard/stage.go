// internal/wizard/stage.go
//
// The onboarding wizard walks a fixed sequence of named stages. Stage values
// outside the sequence are never produced by Next or Prev.

package wizard

// Stage is one screen of the onboarding wizard.
type Stage int

const (
	StagePersonalInfo Stage = iota + 1
	StageEducation
	StageEmployment
	StageDocuments
	StageNextOfKin
)

// Stages lists the wizard in order.
var Stages = []Stage{
	StagePersonalInfo,
	StageEducation,
	StageEmployment,
	StageDocuments,
	StageNextOfKin,
}

// String returns a human-readable name for the stage
func (s Stage) String() string {
	switch s {
	case StagePersonalInfo:
		return "Personal Information"
	case StageEducation:
		return "Education"
	case StageEmployment:
		return "Employment"
	case StageDocuments:
		return "Documents"
	case StageNextOfKin:
		return "Next of Kin"
	default:
		return "Unknown"
	}
}

// Subject is how notices refer to the data a stage saves.
func (s Stage) Subject() string {
	switch s {
	case StagePersonalInfo:
		return "personal information"
	case StageEducation:
		return "education details"
	case StageEmployment:
		return "employment details"
	case StageDocuments:
		return "documents"
	case StageNextOfKin:
		return "next of kin"
	default:
		return "employee"
	}
}

// Valid reports whether s is part of the wizard.
func (s Stage) Valid() bool {
	return s >= StagePersonalInfo && s <= StageNextOfKin
}

// Position is the 1-based step number shown to the user.
func (s Stage) Position() int {
	if !s.Valid() {
		return 0
	}
	return int(s)
}

// Next returns the following stage; the last stage returns itself.
func (s Stage) Next() Stage {
	if !s.Valid() {
		return StagePersonalInfo
	}
	if s == StageNextOfKin {
		return s
	}
	return s + 1
}

// Prev returns the preceding stage; the first stage returns itself.
func (s Stage) Prev() Stage {
	if !s.Valid() || s == StagePersonalInfo {
		return StagePersonalInfo
	}
	return s - 1
}

// IsLast reports whether a successful submit on s finishes the wizard.
func (s Stage) IsLast() bool {
	return s == StageNextOfKin
}
