package genetic

import (
	"fmt"
	"math"
)

const maxFitness = 100.0

// Weights are the penalties subtracted from a perfect score.
type Weights struct {
	TeacherClash   float64
	RoomClash      float64
	ClassClash     float64
	Overload       float64
	DayBalance     float64
	UnavailableDay float64
}

// DefaultWeights weights class clashes highest since a class cannot be in two rooms.
func DefaultWeights() Weights {
	return Weights{
		TeacherClash:   15,
		RoomClash:      15,
		ClassClash:     20,
		Overload:       5,
		DayBalance:     0.2,
		UnavailableDay: 15,
	}
}

type bookingKey struct {
	Owner  string
	Day    string
	Period int
}

type clash struct {
	bookingKey
	Count int
}

// clashes groups genes by owner and slot and returns the groups holding more than one gene,
// in order of first appearance.
func clashes(genes []Gene, owner func(Gene) string) []clash {
	counts := make(map[bookingKey]int, len(genes))
	order := make([]bookingKey, 0, len(genes))
	for _, g := range genes {
		key := bookingKey{Owner: owner(g), Day: g.Day, Period: g.Period}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	var out []clash
	for _, key := range order {
		if n := counts[key]; n > 1 {
			out = append(out, clash{bookingKey: key, Count: n})
		}
	}
	return out
}

func byTeacher(g Gene) string { return g.TeacherID }
func byRoom(g Gene) string    { return g.RoomID }
func byClass(g Gene) string   { return g.ClassID }

// Evaluate scores s in [0,100] and lists its teacher and class double-bookings.
// It does not modify s and uses no randomness.
func (e *Engine) Evaluate(s Schedule) (float64, []string) {
	w := e.weights
	score := maxFitness

	teacherClashes := clashes(s.Genes, byTeacher)
	for _, c := range teacherClashes {
		score -= float64(c.Count-1) * w.TeacherClash
	}
	for _, c := range clashes(s.Genes, byRoom) {
		score -= float64(c.Count-1) * w.RoomClash
	}
	classClashes := clashes(s.Genes, byClass)
	for _, c := range classClashes {
		score -= float64(c.Count-1) * w.ClassClash
	}

	score -= float64(e.overloadHours(s.Genes)) * w.Overload
	score -= w.DayBalance * e.dayImbalance(s.Genes)
	score -= float64(e.unavailableBookings(s.Genes)) * w.UnavailableDay

	return clamp(score), e.describe(teacherClashes, classClashes)
}

// DetectConflicts lists teacher and class double-bookings, one entry per clashing group.
func (e *Engine) DetectConflicts(s Schedule) []string {
	return e.describe(clashes(s.Genes, byTeacher), clashes(s.Genes, byClass))
}

func (e *Engine) describe(teacherClashes, classClashes []clash) []string {
	conflicts := make([]string, 0, len(teacherClashes)+len(classClashes))
	for _, c := range teacherClashes {
		conflicts = append(conflicts, fmt.Sprintf("teacher %s is booked %d times on %s period %d",
			e.teacherName(c.Owner), c.Count, c.Day, c.Period))
	}
	for _, c := range classClashes {
		conflicts = append(conflicts, fmt.Sprintf("class %s is booked %d times on %s period %d",
			e.className(c.Owner), c.Count, c.Day, c.Period))
	}
	return conflicts
}

func (e *Engine) overloadHours(genes []Gene) int {
	load := make(map[string]int)
	for _, g := range genes {
		load[g.TeacherID]++
	}
	excess := 0
	// A cap of zero means the teacher may not teach at all.
	for _, t := range e.snapshot.Teachers {
		if n := load[t.ID]; n > t.MaxHoursPerWeek {
			excess += n - t.MaxHoursPerWeek
		}
	}
	return excess
}

// dayImbalance is the summed distance of each day's session count from the weekly average,
// less the distance that is unavoidable when the total does not divide evenly.
func (e *Engine) dayImbalance(genes []Gene) float64 {
	days := len(e.calendar.Days)
	total := len(genes)
	if total == 0 || days == 0 {
		return 0
	}
	perDay := make([]int, days)
	for _, g := range genes {
		if i := e.calendar.DayIndex(g.Day); i >= 0 {
			perDay[i]++
		}
	}
	// Work in units of 1/days to stay in integers.
	spread := 0
	for _, n := range perDay {
		spread += absInt(days*n - total)
	}
	rem := total % days
	floor := 2 * rem * (days - rem)
	if spread <= floor {
		return 0
	}
	return float64(spread-floor) / float64(days)
}

func (e *Engine) unavailableBookings(genes []Gene) int {
	n := 0
	for _, g := range genes {
		if info, ok := e.teachers[g.TeacherID]; ok && info.unavailableOn(g.Day) {
			n++
		}
	}
	return n
}

func (e *Engine) teacherName(id string) string {
	if info, ok := e.teachers[id]; ok && info.teacher.Name != "" {
		return info.teacher.Name
	}
	return id
}

func (e *Engine) className(id string) string {
	if name, ok := e.classNames[id]; ok && name != "" {
		return name
	}
	return id
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(maxFitness, score))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
