package roster

import (
	"github.com/pavelanni/swimsteps/internal/model"
)

// SampleState returns the demo roster used when storage holds nothing usable:
// two students with some progress and two cohorts, the second starting a week
// after the first.
func (r *Rules) SampleState() State {
	return State{
		Students: r.SampleStudents(),
		Cohorts:  r.SampleCohorts(),
	}.WithValidSelection()
}

// SampleCohorts returns the demo cohorts.
func (r *Rules) SampleCohorts() []model.Cohort {
	now := r.now().UTC()
	return []model.Cohort{
		model.NewCohort(newID(), "Summer A", now),
		model.NewCohort(newID(), "Summer B", now.AddDate(0, 0, 7)),
	}
}

// SampleStudents returns the demo students.
func (r *Rules) SampleStudents() []model.Student {
	achieved := func(notes string) model.SkillState {
		date := r.timestamp()
		return model.SkillState{
			Status: model.StatusAchieved,
			Logs: []model.LogItem{
				{ID: newID(), Type: model.LogAchieved, Date: date, Notes: notes},
			},
			AchievedAt: date,
		}
	}
	inProgress := model.SkillState{Status: model.StatusInProgress, Logs: []model.LogItem{}}

	return []model.Student{
		NormalizeStudent(r.catalog, model.Student{
			ID:   newID(),
			Name: "Lilly Johnson",
			Skills: map[string]model.SkillState{
				"waterComfort": achieved("Comfortable in shallow end"),
				"backFloat":    inProgress,
			},
		}),
		NormalizeStudent(r.catalog, model.Student{
			ID:   newID(),
			Name: "Ryan Patel",
			Skills: map[string]model.SkillState{
				"flutterKick":   achieved(""),
				"freestyleArms": inProgress,
			},
		}),
	}
}
