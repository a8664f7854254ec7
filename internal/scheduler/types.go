package scheduler

import "time"

// AssignmentType is the declared kind of an assignment. It drives hour
// estimates, multipliers, preferred time of day and energy requirement.
type AssignmentType string

const (
	TypeReading      AssignmentType = "reading"
	TypeVideo        AssignmentType = "video"
	TypeQuiz         AssignmentType = "quiz"
	TypeExam         AssignmentType = "exam"
	TypeAssignment   AssignmentType = "assignment"
	TypeProject      AssignmentType = "project"
	TypePaper        AssignmentType = "paper"
	TypePresentation AssignmentType = "presentation"
	TypeDiscussion   AssignmentType = "discussion"
	TypeLab          AssignmentType = "lab"
	TypeClinical     AssignmentType = "clinical"
	TypeSimulation   AssignmentType = "simulation"
	TypeActivity     AssignmentType = "activity"
	TypePrep         AssignmentType = "prep"
	TypeRemediation  AssignmentType = "remediation"
	TypeOther        AssignmentType = "other"

	// TypeReview is not an assignment type; it is the slot-search and
	// energy key used for pre-exam review blocks.
	TypeReview AssignmentType = "review"
)

// AssignmentTypes lists every declarable assignment type in display order.
var AssignmentTypes = []AssignmentType{
	TypeReading, TypeVideo, TypeQuiz, TypeExam, TypeAssignment, TypeProject,
	TypePaper, TypePresentation, TypeDiscussion, TypeLab, TypeClinical,
	TypeSimulation, TypeActivity, TypePrep, TypeRemediation, TypeOther,
}

// Priority is the urgency an assignment was declared with.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// BlockKind distinguishes regular study time from pre-exam review.
type BlockKind string

const (
	KindStudy  BlockKind = "study"
	KindReview BlockKind = "review"
)

// EnergyLevel is how demanding a block is expected to be.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// Assignment is a unit of coursework the engine allocates study time for.
// The engine only reads assignments; it never modifies them.
type Assignment struct {
	ID       string
	CourseID string
	Title    string

	// Due is the calendar date the assignment is due. Only its year, month
	// and day are used.
	Due time.Time

	// DueTime is the optional "HH:MM" due time. The engine plans against
	// the due date; reminders use the time.
	DueTime string

	Type AssignmentType

	// Hours is the declared effort estimate. Zero or negative means the
	// estimate is derived from Type.
	Hours float64

	Priority  Priority
	Completed bool
}

// Course is the read-only course record used for tie-breaking.
type Course struct {
	ID   string
	Name string

	// Priority breaks ties between equally urgent assignments due the same
	// day. Nil counts as 0.
	Priority *int
}

// Event is an occupied calendar interval the engine must not place study
// time over.
type Event struct {
	Title string
	Start time.Time
	End   time.Time // zero means Start plus one hour
}

// Block is a scheduled interval of study or review time.
type Block struct {
	ID              string
	AssignmentID    string
	CourseID        string
	Title           string
	AssignmentTitle string
	AssignmentType  AssignmentType
	Kind            BlockKind
	Date            time.Time // midnight of the day the block lands on
	Start           time.Time
	End             time.Time
	Hours           float64
	Priority        Priority
	Energy          EnergyLevel

	// Suboptimal marks a high-energy block that landed on a low-energy day.
	// It is advisory only.
	Suboptimal bool
}

// Slot is a concrete start/end pair on a given day.
type Slot struct {
	Date  time.Time
	Start time.Time
	End   time.Time
}

// Allocation compares the quota computed for an assignment with the study
// hours actually placed for it.
type Allocation struct {
	Required  float64
	Scheduled float64
}

// Shortfall returns the quota hours that could not be placed.
func (a Allocation) Shortfall() float64 {
	if a.Scheduled >= a.Required {
		return 0
	}
	return a.Required - a.Scheduled
}
