package inmemdb

import (
	"context"
	"sort"

	"github.com/hsuniversity/classroom/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored := copyRecord(rec)
	repo.db.attendance[rec.ID] = &stored
	return copyRecord(stored), nil
}

func (repo *attendanceRepository) GetRecordByID(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.attendance[id]; ok {
		return copyRecord(*rec), nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterRecordsByClass(_ context.Context, classID string) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.ClassID == classID {
			recs = append(recs, copyRecord(*rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date == recs[j].Date {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].Date > recs[j].Date
	})
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, id string, ch attendance.Changes) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec, ok := repo.db.attendance[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if ch.Date != "" {
		rec.Date = ch.Date
	}
	rec.Students = append([]attendance.StudentStatus{}, ch.Students...)
	rec.UpdatedBy = ch.UpdatedBy
	updatedAt := ch.UpdatedAt
	rec.UpdatedAt = &updatedAt
	return copyRecord(*rec), nil
}

func copyRecord(rec attendance.Record) attendance.Record {
	if rec.Students != nil {
		rec.Students = append([]attendance.StudentStatus{}, rec.Students...)
	}
	if rec.UpdatedAt != nil {
		t := *rec.UpdatedAt
		rec.UpdatedAt = &t
	}
	return rec
}
