package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hsuniversity/classroom/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) grades() *mongo.Collection {
	return repo.db.collection(Grades)
}

func (repo *gradeRepository) GetGrade(ctx context.Context, id string) (grade.Grade, error) {
	var g grade.Grade
	if err := repo.grades().FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "finding grade")
	}
	return g, nil
}

func (repo *gradeRepository) FilterGradesByClass(ctx context.Context, classID string) ([]grade.Grade, error) {
	grades := make([]grade.Grade, 0)
	opts := options.Find().SetSort(bson.D{{Key: "student_id", Value: 1}})
	if err := findAll(ctx, repo.grades(), bson.M{"class_id": classID}, &grades, opts); err != nil {
		return nil, errors.Wrap(err, "filtering grades")
	}
	return grades, nil
}

func (repo *gradeRepository) MergeGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	set := bson.M{
		"class_id":   g.ClassID,
		"student_id": g.StudentID,
		"updated_by": g.UpdatedBy,
		"updated_at": g.UpdatedAt,
	}
	onInsert := bson.M{}
	if g.Assignments != nil {
		set["assignments"] = g.Assignments
	} else {
		onInsert["assignments"] = []grade.Assignment{}
	}
	if g.FinalGrade != nil {
		set["final_grade"] = *g.FinalGrade
	} else {
		onInsert["final_grade"] = nil
	}
	update := bson.M{"$set": set}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}

	var merged grade.Grade
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := repo.grades().FindOneAndUpdate(ctx, bson.M{"_id": g.ID}, update, opts).Decode(&merged); err != nil {
		return grade.Grade{}, errors.Wrap(err, "merging grade")
	}
	return merged, nil
}
