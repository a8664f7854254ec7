package scheduler

// Lookup tables keyed by assignment type or priority. Every accessor falls
// back to a default for keys it does not know.

// DefaultEstimateHours is the effort assumed for types without an estimate.
const DefaultEstimateHours = 2.0

var baseHours = map[AssignmentType]float64{
	TypeReading:      2.5,
	TypeVideo:        0.5,
	TypeQuiz:         1.5,
	TypeExam:         8,
	TypeAssignment:   3,
	TypeProject:      6,
	TypePaper:        8,
	TypePresentation: 4,
	TypeDiscussion:   1,
	TypeLab:          2,
	TypeClinical:     0, // no prep is modeled for clinical rotations
	TypeSimulation:   1,
	TypeActivity:     1,
	TypePrep:         2,
	TypeRemediation:  2.5,
}

var priorityMultipliers = map[Priority]float64{
	PriorityLow:    0.8,
	PriorityMedium: 1.0,
	PriorityHigh:   1.3,
	PriorityUrgent: 1.5,
}

var typeMultipliers = map[AssignmentType]float64{
	TypeExam:       1.5,
	TypeProject:    1.3,
	TypePaper:      1.3,
	TypeQuiz:       1.1,
	TypeAssignment: 1.0,
	TypeReading:    0.9,
	TypeVideo:      0.7,
}

// priorityRanks orders priorities for placement; lower ranks go first.
var priorityRanks = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

var energyRequired = map[AssignmentType]EnergyLevel{
	TypeExam:       EnergyHigh,
	TypeQuiz:       EnergyHigh,
	TypeProject:    EnergyHigh,
	TypePaper:      EnergyHigh,
	TypeReview:     EnergyHigh,
	TypeAssignment: EnergyMedium,
	TypeReading:    EnergyMedium,
	TypeVideo:      EnergyLow,
	TypeDiscussion: EnergyLow,
}

// preferredPeriods lists the time-of-day windows tried first per type.
// Types not listed try every window in descending weight order.
var preferredPeriods = map[AssignmentType][]Period{
	TypeExam:       {Morning, Afternoon},
	TypeReview:     {Morning, Afternoon},
	TypeQuiz:       {Morning, Evening},
	TypeReading:    {Evening, Afternoon},
	TypeVideo:      {Evening, Afternoon},
	TypeAssignment: {Afternoon, Evening},
	TypeProject:    {Afternoon, Morning},
}

// EstimateHours returns the base effort for an assignment type.
func EstimateHours(t AssignmentType) float64 {
	if h, ok := baseHours[t]; ok {
		return h
	}
	return DefaultEstimateHours
}

// PriorityMultiplier scales effort by urgency. Unknown priorities scale by 1.
func PriorityMultiplier(p Priority) float64 {
	if m, ok := priorityMultipliers[p]; ok {
		return m
	}
	return 1.0
}

// TypeMultiplier scales effort by assignment type. Unknown types scale by 1.
func TypeMultiplier(t AssignmentType) float64 {
	if m, ok := typeMultipliers[t]; ok {
		return m
	}
	return 1.0
}

// PriorityRank returns the placement rank of p. Unknown priorities rank
// with medium.
func PriorityRank(p Priority) int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return priorityRanks[PriorityMedium]
}

// EnergyRequired returns how demanding work of the given type is.
func EnergyRequired(t AssignmentType) EnergyLevel {
	if e, ok := energyRequired[t]; ok {
		return e
	}
	return EnergyMedium
}

// ParseAssignmentType maps free text onto a known type, falling back to
// TypeOther.
func ParseAssignmentType(s string) AssignmentType {
	t := AssignmentType(s)
	for _, known := range AssignmentTypes {
		if t == known {
			return t
		}
	}
	return TypeOther
}

// ParsePriority maps free text onto a known priority, falling back to
// PriorityMedium.
func ParsePriority(s string) Priority {
	p := Priority(s)
	if _, ok := priorityRanks[p]; ok {
		return p
	}
	return PriorityMedium
}
