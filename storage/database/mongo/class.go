package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hsuniversity/classroom/core/class"
)

// rosterDoc is a class_students document, keyed <classId>/<studentId>.
type rosterDoc struct {
	ID                string `bson:"_id"`
	class.RosterEntry `bson:",inline"`
}

func rosterID(classID, studentID string) string {
	return classID + "/" + studentID
}

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) classes() *mongo.Collection {
	return repo.db.collection(Classes)
}

func (repo *classRepository) roster() *mongo.Collection {
	return repo.db.collection(ClassStudents)
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	if cls.Students == nil {
		cls.Students = []string{}
	}
	if _, err := repo.classes().InsertOne(ctx, cls); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	var cls class.Class
	if err := repo.classes().FindOne(ctx, bson.M{"_id": id}).Decode(&cls); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "finding class")
	}
	return cls, nil
}

func (repo *classRepository) FilterClasses(ctx context.Context, filter class.QueryFilter) ([]class.Class, error) {
	query := bson.M{}
	if filter.LecturerID != "" {
		query["lecturer_id"] = filter.LecturerID
	}
	if filter.StudentID != "" {
		query["students"] = filter.StudentID
	}
	classes := make([]class.Class, 0)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if err := findAll(ctx, repo.classes(), query, &classes, opts); err != nil {
		return nil, errors.Wrap(err, "filtering classes")
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	update := bson.M{"$set": bson.M{
		"class_name": cls.Name,
		"subject":    cls.Subject,
		"schedule":   cls.Schedule,
		"semester":   cls.Semester,
		"year":       cls.Year,
		"updated_at": cls.UpdatedAt,
	}}
	var updated class.Class
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.classes().FindOneAndUpdate(ctx, bson.M{"_id": cls.ID}, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	return updated, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	return repo.db.withTransaction(ctx, func(ctx context.Context) error {
		res, err := repo.classes().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return errors.Wrap(err, "deleting class")
		}
		if res.DeletedCount == 0 {
			return class.ErrNotFound
		}
		if _, err = repo.roster().DeleteMany(ctx, bson.M{"class_id": id}); err != nil {
			return errors.Wrap(err, "deleting class roster")
		}
		return nil
	})
}

func (repo *classRepository) exists(ctx context.Context, id string) error {
	n, err := repo.classes().CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrap(err, "counting classes")
	}
	if n == 0 {
		return class.ErrNotFound
	}
	return nil
}

func (repo *classRepository) AddRosterEntries(ctx context.Context, classID string, entries ...class.RosterEntry) error {
	return repo.db.withTransaction(ctx, func(ctx context.Context) error {
		if err := repo.exists(ctx, classID); err != nil {
			return err
		}
		for _, entry := range entries {
			_, err := repo.roster().UpdateByID(ctx,
				rosterID(classID, entry.StudentID),
				bson.M{
					"$set": bson.M{"student_name": entry.StudentName},
					"$setOnInsert": bson.M{
						"class_id":   classID,
						"student_id": entry.StudentID,
						"added_at":   entry.AddedAt,
					},
				},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return errors.Wrap(err, "upserting roster entry")
			}

			// the $ne guard makes the push and the count increment happen together or not at all
			_, err = repo.classes().UpdateOne(ctx,
				bson.M{"_id": classID, "students": bson.M{"$ne": entry.StudentID}},
				bson.M{
					"$push": bson.M{"students": entry.StudentID},
					"$inc":  bson.M{"students_count": 1},
				},
			)
			if err != nil {
				return errors.Wrap(err, "enrolling student")
			}
		}
		return nil
	})
}

func (repo *classRepository) ListRoster(ctx context.Context, classID string) ([]class.RosterEntry, error) {
	docs := make([]rosterDoc, 0)
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "student_id", Value: 1}})
	if err := findAll(ctx, repo.roster(), bson.M{"class_id": classID}, &docs, opts); err != nil {
		return nil, errors.Wrap(err, "listing roster")
	}
	entries := make([]class.RosterEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.RosterEntry)
	}
	return entries, nil
}

func (repo *classRepository) RemoveRosterEntry(ctx context.Context, classID, studentID string) error {
	return repo.db.withTransaction(ctx, func(ctx context.Context) error {
		if err := repo.exists(ctx, classID); err != nil {
			return err
		}
		del, err := repo.roster().DeleteOne(ctx, bson.M{"_id": rosterID(classID, studentID)})
		if err != nil {
			return errors.Wrap(err, "deleting roster entry")
		}
		upd, err := repo.classes().UpdateOne(ctx,
			bson.M{"_id": classID, "students": studentID},
			bson.M{
				"$pull": bson.M{"students": studentID},
				"$inc":  bson.M{"students_count": -1},
			},
		)
		if err != nil {
			return errors.Wrap(err, "unenrolling student")
		}
		if del.DeletedCount == 0 && upd.ModifiedCount == 0 {
			return class.ErrStudentNotInClass
		}
		return nil
	})
}
