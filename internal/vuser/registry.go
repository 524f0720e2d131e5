package vuser

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// idSeqBits is the width of the sequence portion of a user id:
//
//	| reserved | unix seconds | sequence |
//	|  22 bit  |    32 bit    |  10 bit  |
const idSeqBits = 10

// Registry indexes active virtual users by id (primary, ordered), and by
// name and logical id (secondary multimaps). Entries are inserted on user
// start and removed on user stop; mutating a user's name or logical id
// reindexes it (remove-then-reinsert), pruning empty buckets immediately.
//
// The registry is the one structure touched by multiple users' lifecycle
// transitions; every operation is short-lived, so a single mutex serializes
// them all.
type Registry struct {
	mu          sync.Mutex
	users       *treemap.Map // int64 id -> *User, ordered by id
	byName      map[string]map[int64]*User
	byLogicalID map[int64]map[int64]*User

	seq atomic.Int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		users:       treemap.NewWith(utils.Int64Comparator),
		byName:      make(map[string]map[int64]*User),
		byLogicalID: make(map[int64]map[int64]*User),
	}
}

// NextID returns the next globally unique user id: the current unix time in
// the high bits with an atomic sequence in the low bits.
func (r *Registry) NextID() int64 {
	seq := r.seq.Add(1)
	return time.Now().Unix()<<idSeqBits | (seq & (1<<idSeqBits - 1))
}

// ByID returns the active user with the given id, or nil.
func (r *Registry) ByID(id int64) *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.users.Get(id); ok {
		return v.(*User)
	}
	return nil
}

// ByName returns the active users with the given display name.
func (r *Registry) ByName(name string) []*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.byName[name])
}

// ByLogicalID returns the active users with the given logical id.
func (r *Registry) ByLogicalID(id int64) []*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.byLogicalID[id])
}

// Len returns the number of active users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users.Size()
}

// IDs returns the active user ids in ascending order.
func (r *Registry) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := r.users.Keys()
	ids := make([]int64, len(keys))
	for i, k := range keys {
		ids[i] = k.(int64)
	}
	return ids
}

// Each calls fn for every active user in ascending id order.
func (r *Registry) Each(fn func(u *User)) {
	r.mu.Lock()
	users := make([]*User, 0, r.users.Size())
	for _, v := range r.users.Values() {
		users = append(users, v.(*User))
	}
	r.mu.Unlock()

	for _, u := range users {
		fn(u)
	}
}

func (r *Registry) add(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users.Put(u.id, u)
	if u.name != "" {
		r.insertName(u.name, u)
	}
	if u.logicalID != 0 {
		r.insertLogicalID(u.logicalID, u)
	}
}

func (r *Registry) remove(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users.Remove(u.id)
	r.removeName(u.name, u.id)
	r.removeLogicalID(u.logicalID, u.id)
}

// reindexName moves the user between name buckets after a rename. Users not
// yet registered are skipped.
func (r *Registry) reindexName(u *User, old string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users.Get(u.id); !ok {
		return
	}
	r.removeName(old, u.id)
	if u.name != "" {
		r.insertName(u.name, u)
	}
}

func (r *Registry) reindexLogicalID(u *User, old int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users.Get(u.id); !ok {
		return
	}
	r.removeLogicalID(old, u.id)
	if u.logicalID != 0 {
		r.insertLogicalID(u.logicalID, u)
	}
}

func (r *Registry) insertName(name string, u *User) {
	bucket := r.byName[name]
	if bucket == nil {
		bucket = make(map[int64]*User)
		r.byName[name] = bucket
	}
	bucket[u.id] = u
}

func (r *Registry) removeName(name string, id int64) {
	if name == "" {
		return
	}
	bucket, ok := r.byName[name]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(r.byName, name)
	}
}

func (r *Registry) insertLogicalID(lid int64, u *User) {
	bucket := r.byLogicalID[lid]
	if bucket == nil {
		bucket = make(map[int64]*User)
		r.byLogicalID[lid] = bucket
	}
	bucket[u.id] = u
}

func (r *Registry) removeLogicalID(lid int64, id int64) {
	if lid == 0 {
		return
	}
	bucket, ok := r.byLogicalID[lid]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(r.byLogicalID, lid)
	}
}

func collect(bucket map[int64]*User) []*User {
	if len(bucket) == 0 {
		return nil
	}
	users := make([]*User, 0, len(bucket))
	for _, u := range bucket {
		users = append(users, u)
	}
	return users
}
