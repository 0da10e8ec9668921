// Package inmemdb is a process-local document store used in tests and local development.
// A single lock guards every collection so that multi-collection writes are atomic.
package inmemdb

import (
	"sync"

	"github.com/hsuniversity/classroom/core/attendance"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/grade"
	"github.com/hsuniversity/classroom/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users      map[string]*user.User
	classes    map[string]*class.Class
	rosters    map[string]map[string]class.RosterEntry // {classID: {studentID: entry}}
	attendance map[string]*attendance.Record
	grades     map[string]*grade.Grade
}

func Open() *DB {
	return &DB{
		users:      make(map[string]*user.User),
		classes:    make(map[string]*class.Class),
		rosters:    make(map[string]map[string]class.RosterEntry),
		attendance: make(map[string]*attendance.Record),
		grades:     make(map[string]*grade.Grade),
	}
}
