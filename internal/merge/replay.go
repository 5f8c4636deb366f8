package merge

import (
	"cmp"
	"slices"

	"github.com/lherron/wilds/internal/domain"
)

// node is the pointer view of a replayable entity
type node[T any] interface {
	*T
	Base() *domain.Envelope
	Label() string
	SetLabel(string)
}

// tree describes one root/leaf hierarchy to replay
type tree[R, L any] struct {
	rootType   domain.EntityType
	leafType   domain.EntityType
	children   func(*R) *[]L
	cloneRoot  func(R) R
	mergeLeaf  func(x, y L) L
	cloneLeaf  func(L) L
	sortLeaves func([]L)
}

var screenTree = tree[domain.Screen, domain.Button]{
	rootType:  domain.EntityScreen,
	leafType:  domain.EntityButton,
	children:  func(s *domain.Screen) *[]domain.Button { return &s.Buttons },
	cloneRoot: domain.Screen.Clone,
	mergeLeaf: Button,
	cloneLeaf: domain.Button.Clone,
}

var questionnaireTree = tree[domain.Questionnaire, domain.Question]{
	rootType:  domain.EntityQuestionnaire,
	leafType:  domain.EntityQuestion,
	children:  func(q *domain.Questionnaire) *[]domain.Question { return &q.Questions },
	cloneRoot: domain.Questionnaire.Clone,
	mergeLeaf: Question,
	cloneLeaf: domain.Question.Clone,
	sortLeaves: func(qs []domain.Question) {
		slices.SortStableFunc(qs, func(x, y domain.Question) int { return cmp.Compare(x.Order, y.Order) })
	},
}

// ReplayScreens applies the screen and button records of a merged change log
// to merged screens. Renames, archive flags and moves only apply when newer
// than the value currently held; deletes always apply. Records naming unknown
// entities or destinations are skipped.
func ReplayScreens(screens []domain.Screen, log []domain.EntityChange) []domain.Screen {
	return replay(screenTree, screens, log)
}

// ReplayQuestionnaires is ReplayScreens for questionnaires and questions.
// Questions are re-sorted by their order field.
func ReplayQuestionnaires(qs []domain.Questionnaire, log []domain.EntityChange) []domain.Questionnaire {
	return replay(questionnaireTree, qs, log)
}

// guard holds the time each replayed field was last set
type guard struct {
	label    int64
	archived int64
	owner    int64
}

type replayState[R any, PR node[R], L any, PL node[L]] struct {
	t tree[R, L]

	roots     map[string]*R
	rootOrder []string
	leaves    map[string]*L
	leafOrder []string
	owner     map[string]string

	rootGuards map[string]*guard
	leafGuards map[string]*guard
	history    map[string][]domain.EntityChange
}

func replay[R any, PR node[R], L any, PL node[L]](t tree[R, L], roots []R, log []domain.EntityChange) []R {
	st := &replayState[R, PR, L, PL]{
		t:          t,
		roots:      make(map[string]*R, len(roots)),
		leaves:     make(map[string]*L),
		owner:      make(map[string]string),
		rootGuards: make(map[string]*guard),
		leafGuards: make(map[string]*guard),
		history:    make(map[string][]domain.EntityChange),
	}

	sorted := slices.Clone(log)
	slices.SortStableFunc(sorted, func(x, y domain.EntityChange) int { return cmp.Compare(x.Timestamp, y.Timestamp) })
	for _, c := range sorted {
		if c.EntityType == t.rootType || c.EntityType == t.leafType {
			key := string(c.EntityType) + "/" + c.EntityID
			st.history[key] = append(st.history[key], c)
		}
	}

	st.collect(roots)
	for _, c := range sorted {
		switch c.EntityType {
		case t.rootType:
			st.applyRoot(c)
		case t.leafType:
			st.applyLeaf(c)
		}
	}
	return st.assemble()
}

// collect copies the roots with their children detached and flattens every
// leaf. A leaf found under several roots is merged and assigned to the owner
// named by its latest move record.
func (st *replayState[R, PR, L, PL]) collect(roots []R) {
	candidates := make(map[string][]string)
	for i := range roots {
		rootID := PR(&roots[i]).Base().ID
		if _, ok := st.roots[rootID]; !ok {
			cp := roots[i]
			*st.t.children(&cp) = nil
			cp = st.t.cloneRoot(cp)
			st.roots[rootID] = &cp
			st.rootOrder = append(st.rootOrder, rootID)
		}

		for _, leaf := range *st.t.children(&roots[i]) {
			leafID := PL(&leaf).Base().ID
			if existing, ok := st.leaves[leafID]; ok {
				merged := st.t.mergeLeaf(*existing, leaf)
				st.leaves[leafID] = &merged
			} else {
				cp := st.t.cloneLeaf(leaf)
				st.leaves[leafID] = &cp
				st.leafOrder = append(st.leafOrder, leafID)
			}
			if !slices.Contains(candidates[leafID], rootID) {
				candidates[leafID] = append(candidates[leafID], rootID)
			}
		}
	}

	for rootID, r := range st.roots {
		st.rootGuards[rootID] = st.initialGuard(st.t.rootType, PR(r), "")
	}
	for leafID, l := range st.leaves {
		owner, at := st.pickOwner(leafID, candidates[leafID])
		st.owner[leafID] = owner
		g := st.initialGuard(st.t.leafType, PL(l), owner)
		if at > g.owner {
			g.owner = at
		}
		st.leafGuards[leafID] = g
	}
}

// pickOwner chooses among the roots holding a leaf. The root named by the
// latest move record wins; without one the first root seen wins.
func (st *replayState[R, PR, L, PL]) pickOwner(leafID string, candidates []string) (string, int64) {
	owner := candidates[0]
	var at int64 = -1
	for _, c := range st.history[string(st.t.leafType)+"/"+leafID] {
		if c.ChangeType != domain.ChangeMove || c.Timestamp <= at {
			continue
		}
		if slices.Contains(candidates, c.NewValue) {
			owner, at = c.NewValue, c.Timestamp
		}
	}
	return owner, max(at, 0)
}

// initialGuard finds, for each replayed field, the latest record whose outcome
// matches the value currently held. Fields no record explains fall back to the
// entity's creation time.
func (st *replayState[R, PR, L, PL]) initialGuard(kind domain.EntityType, n interface {
	Base() *domain.Envelope
	Label() string
}, owner string) *guard {
	env := n.Base()
	g := &guard{label: env.CreatedAt, archived: env.CreatedAt, owner: env.CreatedAt}
	for _, c := range st.history[string(kind)+"/"+env.ID] {
		switch c.ChangeType {
		case domain.ChangeRename:
			if c.NewValue != "" && c.NewValue == n.Label() {
				g.label = c.Timestamp
			}
		case domain.ChangeArchive:
			if env.Archived {
				g.archived = c.Timestamp
			}
		case domain.ChangeUnarchive:
			if !env.Archived {
				g.archived = c.Timestamp
			}
		case domain.ChangeMove:
			if owner != "" && c.NewValue == owner {
				g.owner = c.Timestamp
			}
		}
	}
	return g
}

func (st *replayState[R, PR, L, PL]) applyRoot(c domain.EntityChange) {
	r, ok := st.roots[c.EntityID]
	if !ok {
		return
	}
	if c.ChangeType == domain.ChangeDelete {
		delete(st.roots, c.EntityID)
		return
	}
	applyField(PR(r), st.rootGuards[c.EntityID], c)
}

func (st *replayState[R, PR, L, PL]) applyLeaf(c domain.EntityChange) {
	l, ok := st.leaves[c.EntityID]
	if !ok {
		return
	}
	g := st.leafGuards[c.EntityID]
	switch c.ChangeType {
	case domain.ChangeDelete:
		delete(st.leaves, c.EntityID)
		delete(st.owner, c.EntityID)
	case domain.ChangeMove:
		if _, ok := st.roots[c.NewValue]; !ok || c.Timestamp <= g.owner {
			return
		}
		st.owner[c.EntityID] = c.NewValue
		g.owner = c.Timestamp
		touch(PL(l).Base(), c.Timestamp)
	default:
		applyField(PL(l), g, c)
	}
}

// applyField replays a rename or archive flag change under the recency guard.
// Other change types have no structural effect.
func applyField(n interface {
	Base() *domain.Envelope
	SetLabel(string)
}, g *guard, c domain.EntityChange) {
	env := n.Base()
	switch c.ChangeType {
	case domain.ChangeRename:
		if c.NewValue == "" || c.Timestamp <= g.label {
			return
		}
		n.SetLabel(c.NewValue)
		g.label = c.Timestamp
	case domain.ChangeArchive, domain.ChangeUnarchive:
		if c.Timestamp <= g.archived {
			return
		}
		env.Archived = c.ChangeType == domain.ChangeArchive
		g.archived = c.Timestamp
	default:
		return
	}
	touch(env, c.Timestamp)
}

func touch(env *domain.Envelope, ts int64) {
	if ts > env.LastModified {
		env.LastModified = ts
	}
}

// assemble re-attaches surviving leaves to their owners. Leaves whose owner
// no longer exists are dropped.
func (st *replayState[R, PR, L, PL]) assemble() []R {
	out := make([]R, 0, len(st.roots))
	for _, rootID := range st.rootOrder {
		r, ok := st.roots[rootID]
		if !ok {
			continue
		}
		kids := make([]L, 0)
		for _, leafID := range st.leafOrder {
			l, ok := st.leaves[leafID]
			if ok && st.owner[leafID] == rootID {
				kids = append(kids, *l)
			}
		}
		if st.t.sortLeaves != nil {
			st.t.sortLeaves(kids)
		}
		*st.t.children(r) = kids
		out = append(out, *r)
	}
	return out
}
