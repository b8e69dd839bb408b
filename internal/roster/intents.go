package roster

import "context"

// The methods below apply a single Rules transition through Apply.

func (s *Service) AddStudent(ctx context.Context, name string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.AddStudent(st, name) })
}

func (s *Service) RemoveStudent(ctx context.Context, id string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.RemoveStudent(st, id) })
}

func (s *Service) Select(ctx context.Context, id string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.Select(st, id) })
}

func (s *Service) StepSkillStatus(ctx context.Context, studentID, skillKey string, dir int) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		return s.rules.StepSkillStatus(st, studentID, skillKey, dir)
	})
}

func (s *Service) AddSkillLog(ctx context.Context, studentID, skillKey string, in LogInput) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		return s.rules.AddSkillLog(st, studentID, skillKey, in)
	})
}

func (s *Service) AddPractice(ctx context.Context, studentID string, in PracticeInput) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.AddPractice(st, studentID, in) })
}

func (s *Service) TogglePractice(ctx context.Context, studentID, practiceID string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		return s.rules.TogglePractice(st, studentID, practiceID)
	})
}

func (s *Service) RemovePractice(ctx context.Context, studentID, practiceID string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		return s.rules.RemovePractice(st, studentID, practiceID)
	})
}

func (s *Service) AddNote(ctx context.Context, studentID, text string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.AddNote(st, studentID, text) })
}

func (s *Service) RemoveNote(ctx context.Context, studentID, noteID string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.RemoveNote(st, studentID, noteID) })
}

func (s *Service) SetStudentCohort(ctx context.Context, studentID, cohortID string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		return s.rules.SetStudentCohort(st, studentID, cohortID)
	})
}

func (s *Service) AddCohort(ctx context.Context, name, start string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.AddCohort(st, name, start) })
}

func (s *Service) RemoveCohort(ctx context.Context, id string) (State, error) {
	return s.Apply(ctx, func(st State) (State, error) { return s.rules.RemoveCohort(st, id) })
}
