package inmemdb

import (
	"context"
	"sort"

	"github.com/hsuniversity/classroom/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) GetGrade(_ context.Context, id string) (grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return copyGrade(*g), nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) FilterGradesByClass(_ context.Context, classID string) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, g := range repo.db.grades {
		if g.ClassID == classID {
			grades = append(grades, copyGrade(*g))
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].StudentID < grades[j].StudentID })
	return grades, nil
}

func (repo *gradeRepository) MergeGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.grades[g.ID]
	if !ok {
		stored = &grade.Grade{ID: g.ID, ClassID: g.ClassID, StudentID: g.StudentID, Assignments: []grade.Assignment{}}
		repo.db.grades[g.ID] = stored
	}
	merged := copyGrade(g)
	if merged.Assignments != nil {
		stored.Assignments = merged.Assignments
	}
	if merged.FinalGrade != nil {
		stored.FinalGrade = merged.FinalGrade
	}
	stored.UpdatedBy = g.UpdatedBy
	stored.UpdatedAt = g.UpdatedAt
	return copyGrade(*stored), nil
}

func copyGrade(g grade.Grade) grade.Grade {
	if g.Assignments != nil {
		g.Assignments = append([]grade.Assignment{}, g.Assignments...)
	}
	if g.FinalGrade != nil {
		f := *g.FinalGrade
		g.FinalGrade = &f
	}
	return g
}
