package genetic

// TournamentSelect draws TournamentSize members with replacement and returns the fittest.
func (e *Engine) TournamentSelect(population []Schedule) Schedule {
	best := population[e.rng.Intn(len(population))]
	for i := 1; i < e.cfg.TournamentSize; i++ {
		candidate := population[e.rng.Intn(len(population))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

// Crossover joins p1's genes before a random cut with p2's genes from the cut on.
// The child has len(p1.Genes) genes; positions p2 lacks are taken from p1.
func (e *Engine) Crossover(p1, p2 Schedule) Schedule {
	genes := make([]Gene, len(p1.Genes))
	if len(genes) == 0 {
		return Schedule{Genes: genes}
	}
	cut := e.rng.Intn(len(p1.Genes))
	copy(genes, p1.Genes[:cut])
	for i := cut; i < len(genes); i++ {
		if i < len(p2.Genes) {
			genes[i] = p2.Genes[i]
		} else {
			genes[i] = p1.Genes[i]
		}
	}
	return Schedule{Genes: genes}
}

// Mutate returns a copy of s where each gene, with probability GeneMutationRate, gets a new
// day, period or room. New days are drawn from the teacher's available days only.
func (e *Engine) Mutate(s Schedule) Schedule {
	genes := make([]Gene, len(s.Genes))
	copy(genes, s.Genes)
	for i := range genes {
		if e.rng.Float64() >= e.cfg.GeneMutationRate {
			continue
		}
		switch e.rng.Intn(3) {
		case 0:
			if days := e.availableDays(genes[i].TeacherID); len(days) > 0 {
				genes[i].Day = days[e.rng.Intn(len(days))]
			}
		case 1:
			genes[i].Period = 1 + e.rng.Intn(e.calendar.PeriodsPerDay)
		default:
			genes[i].RoomID = e.randomRoom()
		}
	}
	return Schedule{Genes: genes}
}

func (e *Engine) availableDays(teacherID string) []string {
	if info, ok := e.teachers[teacherID]; ok {
		return info.availableDays
	}
	return e.calendar.Days
}
