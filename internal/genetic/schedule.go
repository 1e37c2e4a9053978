package genetic

// Gene is one session assignment: a class meets a teacher for a subject in a room at a (day, period).
type Gene struct {
	ClassID   string `json:"class_id"`
	TeacherID string `json:"teacher_id"`
	SubjectID string `json:"subject_id"`
	RoomID    string `json:"room_id"`
	Day       string `json:"day"`
	Period    int    `json:"period"`
}

// Schedule is a candidate timetable. Genes keep the class/subject order they were built in.
type Schedule struct {
	Genes     []Gene   `json:"genes"`
	Fitness   float64  `json:"fitness"`
	Conflicts []string `json:"conflicts"`
}

// Clone returns a deep copy that shares no backing arrays with s.
func (s Schedule) Clone() Schedule {
	out := Schedule{Fitness: s.Fitness}
	if s.Genes != nil {
		out.Genes = make([]Gene, len(s.Genes))
		copy(out.Genes, s.Genes)
	}
	if s.Conflicts != nil {
		out.Conflicts = make([]string, len(s.Conflicts))
		copy(out.Conflicts, s.Conflicts)
	}
	return out
}

// SessionsBySubject counts genes per subject.
func (s Schedule) SessionsBySubject() map[string]int {
	counts := make(map[string]int)
	for _, g := range s.Genes {
		counts[g.SubjectID]++
	}
	return counts
}
