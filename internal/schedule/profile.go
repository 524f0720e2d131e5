package schedule

import (
	"fmt"
	"sort"
)

// Profile is the immutable definition of one virtual-user type: its
// task-sets, per-category schedule modes, fixed task-set lists, and the
// user-level exclusive flag. One Scheduler instance is created from it per
// virtual user.
type Profile struct {
	// Name identifies the user type in logs and errors.
	Name string

	// Exclusive is the user-level exclusive-schedule flag; when set, no
	// task-set of this user auto-advances.
	Exclusive bool

	taskSets      []*TaskSetDescriptor // sorted by category
	slots         map[*TaskSetDescriptor]int
	categoryModes map[Category]ScheduleMode
	fixedTaskSets map[Category][]*TaskSetDescriptor
	byCategory    map[Category][]*TaskSetDescriptor
}

// TaskSets returns the profile's task-sets in category order.
func (p *Profile) TaskSets() []*TaskSetDescriptor { return p.taskSets }

// CategoryMode returns the schedule mode for a category.
func (p *Profile) CategoryMode(c Category) ScheduleMode {
	if m, ok := p.categoryModes[c]; ok {
		return m
	}
	return c.DefaultScheduleMode()
}

// CategoryTaskSets returns the task-sets declared in a category.
func (p *Profile) CategoryTaskSets(c Category) []*TaskSetDescriptor {
	return p.byCategory[c]
}

// schedulableDefs returns the list the top-level scheduler selects from for a
// category: the resolved fixed list for fixed category modes, otherwise all
// of the category's task-sets.
func (p *Profile) schedulableDefs(c Category) []*TaskSetDescriptor {
	if p.CategoryMode(c).Fixed() {
		if fixed, ok := p.fixedTaskSets[c]; ok {
			return fixed
		}
	}
	return p.byCategory[c]
}

// firstCategory returns the first non-empty category in declared order.
func (p *Profile) firstCategory() (Category, bool) {
	for _, c := range Categories() {
		if len(p.byCategory[c]) > 0 {
			return c, true
		}
	}
	return 0, false
}

// ProfileBuilder assembles a Profile. Call once per user type at program
// initialization.
type ProfileBuilder struct {
	name          string
	exclusive     bool
	taskSets      []*TaskSetDescriptor
	categoryModes map[Category]ScheduleMode
	fixed         map[Category][]TaskSetRef
}

// NewProfile starts a user-type definition.
func NewProfile(name string) *ProfileBuilder {
	return &ProfileBuilder{
		name:          name,
		categoryModes: make(map[Category]ScheduleMode),
		fixed:         make(map[Category][]TaskSetRef),
	}
}

// TaskSet adds a task-set definition to the profile.
func (b *ProfileBuilder) TaskSet(def *TaskSetDescriptor) *ProfileBuilder {
	b.taskSets = append(b.taskSets, def)
	return b
}

// CategoryMode overrides the schedule mode for one category.
func (b *ProfileBuilder) CategoryMode(c Category, m ScheduleMode) *ProfileBuilder {
	b.categoryModes[c] = m
	return b
}

// FixedTaskSets declares the fixed task-set list for a category scheduled in
// a fixed mode. Entries may reference task-sets by name or handle.
func (b *ProfileBuilder) FixedTaskSets(c Category, refs ...TaskSetRef) *ProfileBuilder {
	b.fixed[c] = append(b.fixed[c], refs...)
	return b
}

// Exclusive sets the user-level exclusive-schedule flag.
func (b *ProfileBuilder) Exclusive() *ProfileBuilder {
	b.exclusive = true
	return b
}

// Build validates the definition and returns the immutable profile.
func (b *ProfileBuilder) Build() (*Profile, error) {
	if len(b.taskSets) == 0 {
		return nil, &NoTaskSetsError{Profile: b.name}
	}

	taskSets := make([]*TaskSetDescriptor, len(b.taskSets))
	copy(taskSets, b.taskSets)
	sort.SliceStable(taskSets, func(i, j int) bool {
		return taskSets[i].Category < taskSets[j].Category
	})

	names := make(map[string]bool, len(taskSets))
	byCategory := make(map[Category][]*TaskSetDescriptor)
	// Slot assignments live on the profile, not the descriptor: the same
	// task-set descriptor may be registered in several profiles.
	slots := make(map[*TaskSetDescriptor]int, len(taskSets))
	for i, def := range taskSets {
		if names[def.Name] {
			return nil, &DefinitionError{TaskSet: def.Name,
				Message: fmt.Sprintf("registered twice in profile %s", b.name)}
		}
		names[def.Name] = true
		slots[def] = i
		byCategory[def.Category] = append(byCategory[def.Category], def)
	}

	categoryModes := make(map[Category]ScheduleMode, len(b.categoryModes))
	for c, m := range b.categoryModes {
		if !c.valid() {
			return nil, &DefinitionError{TaskSet: b.name, Message: "invalid category in mode override"}
		}
		if !m.valid() {
			return nil, &DefinitionError{TaskSet: b.name,
				Message: fmt.Sprintf("invalid schedule mode for category %s", c)}
		}
		categoryModes[c] = m
	}

	p := &Profile{
		Name:          b.name,
		Exclusive:     b.exclusive,
		taskSets:      taskSets,
		slots:         slots,
		categoryModes: categoryModes,
		byCategory:    byCategory,
		fixedTaskSets: make(map[Category][]*TaskSetDescriptor),
	}

	for _, c := range Categories() {
		if !p.CategoryMode(c).Fixed() || len(byCategory[c]) == 0 {
			continue
		}
		refs, declared := b.fixed[c]
		if !declared {
			p.fixedTaskSets[c] = byCategory[c]
			continue
		}
		if len(refs) == 0 {
			return nil, &DefinitionError{TaskSet: b.name,
				Message: fmt.Sprintf("fixed task-set list for category %s is empty", c)}
		}
		fixed := make([]*TaskSetDescriptor, 0, len(refs))
		for _, ref := range refs {
			def := resolveTaskSetAgainst(byCategory[c], ref)
			if def == nil {
				return nil, &UnresolvedFixedTaskSetError{Profile: b.name, Category: c, Ref: ref}
			}
			fixed = append(fixed, def)
		}
		p.fixedTaskSets[c] = fixed
	}

	return p, nil
}

func resolveTaskSetAgainst(defs []*TaskSetDescriptor, ref TaskSetRef) *TaskSetDescriptor {
	for _, def := range defs {
		switch ref.kind {
		case refName:
			if def.Name == ref.name {
				return def
			}
		case refHandle:
			if ref.def != nil && (def == ref.def || def.Name == ref.def.Name) {
				return def
			}
		}
	}
	return nil
}
