package inmemdb

import (
	"context"
	"sort"

	"github.com/hsuniversity/classroom/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored := copyClass(cls)
	if stored.Students == nil {
		stored.Students = []string{}
	}
	repo.db.classes[cls.ID] = &stored
	return copyClass(stored), nil
}

func (repo *classRepository) GetClassByID(_ context.Context, id string) (class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return copyClass(*cls), nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) FilterClasses(_ context.Context, filter class.QueryFilter) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]class.Class, 0)
	for _, cls := range repo.db.classes {
		if filter.LecturerID != "" && cls.LecturerID != filter.LecturerID {
			continue
		}
		if filter.StudentID != "" && !cls.HasStudent(filter.StudentID) {
			continue
		}
		classes = append(classes, copyClass(*cls))
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].CreatedAt.Equal(classes[j].CreatedAt) {
			return classes[i].ID < classes[j].ID
		}
		return classes[i].CreatedAt.Before(classes[j].CreatedAt)
	})
	return classes, nil
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	// enrollment is only changed through the roster methods
	stored := copyClass(cls)
	stored.Students = orig.Students
	stored.StudentsCount = orig.StudentsCount
	repo.db.classes[cls.ID] = &stored
	return copyClass(stored), nil
}

func (repo *classRepository) DeleteClass(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return class.ErrNotFound
	}
	delete(repo.db.classes, id)
	delete(repo.db.rosters, id)
	return nil
}

func (repo *classRepository) AddRosterEntries(_ context.Context, classID string, entries ...class.RosterEntry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return class.ErrNotFound
	}
	roster, ok := repo.db.rosters[classID]
	if !ok {
		roster = make(map[string]class.RosterEntry)
		repo.db.rosters[classID] = roster
	}
	for _, entry := range entries {
		entry.ClassID = classID
		roster[entry.StudentID] = entry
		if !cls.HasStudent(entry.StudentID) {
			cls.Students = append(cls.Students, entry.StudentID)
			cls.StudentsCount++
		}
	}
	return nil
}

func (repo *classRepository) ListRoster(_ context.Context, classID string) ([]class.RosterEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]class.RosterEntry, 0, len(repo.db.rosters[classID]))
	for _, entry := range repo.db.rosters[classID] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].StudentID < entries[j].StudentID
		}
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

func (repo *classRepository) RemoveRosterEntry(_ context.Context, classID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return class.ErrNotFound
	}
	_, inRoster := repo.db.rosters[classID][studentID]
	if !inRoster && !cls.HasStudent(studentID) {
		return class.ErrStudentNotInClass
	}
	delete(repo.db.rosters[classID], studentID)
	if cls.HasStudent(studentID) {
		cls.Students = removeString(cls.Students, studentID)
		cls.StudentsCount--
	}
	return nil
}

func copyClass(cls class.Class) class.Class {
	if cls.Students != nil {
		cls.Students = append([]string{}, cls.Students...)
	}
	if cls.Schedule != nil {
		s := *cls.Schedule
		cls.Schedule = &s
	}
	return cls
}
