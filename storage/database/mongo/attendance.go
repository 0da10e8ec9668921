package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hsuniversity/classroom/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) records() *mongo.Collection {
	return repo.db.collection(Attendance)
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if _, err := repo.records().InsertOne(ctx, rec); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var rec attendance.Record
	if err := repo.records().FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "finding attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) FilterRecordsByClass(ctx context.Context, classID string) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	if err := findAll(ctx, repo.records(), bson.M{"class_id": classID}, &recs, opts); err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, id string, ch attendance.Changes) (attendance.Record, error) {
	set := bson.M{
		"students":   ch.Students,
		"updated_by": ch.UpdatedBy,
		"updated_at": ch.UpdatedAt,
	}
	if ch.Date != "" {
		set["date"] = ch.Date
	}

	var rec attendance.Record
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.records().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	return rec, nil
}
