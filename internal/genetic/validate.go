package genetic

import "fmt"

// SubjectDiscrepancy reports a subject whose scheduled session count is off.
type SubjectDiscrepancy struct {
	SubjectID string `json:"subject_id"`
	Subject   string `json:"subject"`
	Scheduled int    `json:"scheduled"`
	Required  int    `json:"required"`
	Missing   int    `json:"missing"`
}

// ValidationResult is the post-hoc check of a finished schedule.
type ValidationResult struct {
	Valid         bool                 `json:"valid"`
	Errors        []string             `json:"errors"`
	Discrepancies []SubjectDiscrepancy `json:"discrepancies"`
}

// Validate checks every subject is scheduled SessionsPerWeek times per class and that no
// teacher or class is double-booked.
func (e *Engine) Validate(s Schedule) ValidationResult {
	result := ValidationResult{Errors: []string{}, Discrepancies: []SubjectDiscrepancy{}}
	counts := s.SessionsBySubject()
	classes := len(e.snapshot.Classes)

	for _, subject := range e.snapshot.Subjects {
		required := subject.SessionsPerWeek * classes
		scheduled := counts[subject.ID]
		if scheduled == required {
			continue
		}
		result.Discrepancies = append(result.Discrepancies, SubjectDiscrepancy{
			SubjectID: subject.ID,
			Subject:   subject.Name,
			Scheduled: scheduled,
			Required:  required,
			Missing:   required - scheduled,
		})
		result.Errors = append(result.Errors,
			fmt.Sprintf("subject %s: %d sessions scheduled, expected %d", subject.Name, scheduled, required))
	}

	result.Errors = append(result.Errors, e.DetectConflicts(s)...)
	result.Valid = len(result.Errors) == 0
	return result
}
