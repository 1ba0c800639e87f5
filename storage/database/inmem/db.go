// Package inmemdb provides map-backed repositories with the same semantics as
// the postgres ones; used by tests and local hacking.
package inmemdb

import (
	"sync"

	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/qa"
	"github.com/keneanapp/kenean/core/user"
)

// DB holds all tables behind a single lock so multi-table operations
// (answering a question, discussing) stay atomic.
type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	categories  map[string]*catalog.Category
	volumes     map[string]*catalog.Volume
	lessons     map[string]*catalog.Lesson
	questions   map[string]*qa.Question
	answers     map[string]*qa.Answer
	discussions map[string]*qa.Discussion
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		categories:  make(map[string]*catalog.Category),
		volumes:     make(map[string]*catalog.Volume),
		lessons:     make(map[string]*catalog.Lesson),
		questions:   make(map[string]*qa.Question),
		answers:     make(map[string]*qa.Answer),
		discussions: make(map[string]*qa.Discussion),
	}
}
