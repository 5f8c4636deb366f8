package tracker

import (
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/id"
)

func (e *Editor) screen(t *domain.Tracker, screenID string) (*domain.Screen, error) {
	s := t.Screen(screenID)
	if s == nil {
		return nil, notFound(domain.EntityScreen, screenID)
	}
	return s, nil
}

// AddScreen appends an empty screen
func (e *Editor) AddScreen(t *domain.Tracker, name string) (*domain.Screen, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	now := e.now()
	t.Screens = append(t.Screens, domain.Screen{
		Envelope: domain.Envelope{ID: e.newID(id.KindScreen), EntityVersion: 1, CreatedAt: now, LastModified: now},
		Name:     name,
		Buttons:  []domain.Button{},
	})
	e.stamp(t, now)
	return &t.Screens[len(t.Screens)-1], nil
}

// RenameScreen renames a screen
func (e *Editor) RenameScreen(t *domain.Tracker, screenID, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	s, err := e.screen(t, screenID)
	if err != nil {
		return err
	}

	now := e.now()
	old := s.Name
	s.Name = name
	s.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: screenID, EntityType: domain.EntityScreen, ChangeType: domain.ChangeRename,
		Timestamp: now, OldValue: old, NewValue: name,
	})
	return nil
}

// ArchiveScreen hides a screen. If it was current, the first active screen
// becomes current.
func (e *Editor) ArchiveScreen(t *domain.Tracker, screenID string) error {
	if err := e.setScreenArchived(t, screenID, true); err != nil {
		return err
	}
	if t.CurrentScreenID == screenID {
		if active := t.ActiveScreens(); len(active) > 0 {
			t.CurrentScreenID = active[0].ID
		}
	}
	return nil
}

// UnarchiveScreen restores an archived screen
func (e *Editor) UnarchiveScreen(t *domain.Tracker, screenID string) error {
	return e.setScreenArchived(t, screenID, false)
}

func (e *Editor) setScreenArchived(t *domain.Tracker, screenID string, archived bool) error {
	s, err := e.screen(t, screenID)
	if err != nil {
		return err
	}
	now := e.now()
	s.Archived = archived
	s.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: screenID, EntityType: domain.EntityScreen, ChangeType: archiveChange(archived), Timestamp: now,
	})
	return nil
}

func archiveChange(archived bool) domain.ChangeType {
	if archived {
		return domain.ChangeArchive
	}
	return domain.ChangeUnarchive
}

// isLastActive reports whether screenID is the only non-archived screen
func isLastActive(t *domain.Tracker, screenID string) bool {
	active := t.ActiveScreens()
	return len(active) == 1 && active[0].ID == screenID
}

// RemoveScreen archives a screen unless it is the last active one
func (e *Editor) RemoveScreen(t *domain.Tracker, screenID string) error {
	if isLastActive(t, screenID) {
		return ErrLastActiveScreen
	}
	return e.ArchiveScreen(t, screenID)
}

// DeleteScreen removes a screen and its buttons permanently
func (e *Editor) DeleteScreen(t *domain.Tracker, screenID string) error {
	if _, err := e.screen(t, screenID); err != nil {
		return err
	}
	if isLastActive(t, screenID) {
		return ErrLastActiveScreen
	}

	e.record(t, domain.EntityChange{
		EntityID: screenID, EntityType: domain.EntityScreen, ChangeType: domain.ChangeDelete, Timestamp: e.now(),
	})
	kept := t.Screens[:0]
	for _, s := range t.Screens {
		if s.ID != screenID {
			kept = append(kept, s)
		}
	}
	t.Screens = kept

	if t.CurrentScreenID == screenID && len(t.Screens) > 0 {
		t.CurrentScreenID = t.Screens[0].ID
		if active := t.ActiveScreens(); len(active) > 0 {
			t.CurrentScreenID = active[0].ID
		}
	}
	return nil
}

// ReorderScreens moves an active screen between positions among the active
// screens. Archived screens are kept after the active ones.
func (e *Editor) ReorderScreens(t *domain.Tracker, from, to int) error {
	visible, hidden := splitArchived(t.Screens, func(s *domain.Screen) bool { return s.Archived })
	if err := moveIndex(visible, from, to); err != nil {
		return err
	}
	t.Screens = append(visible, hidden...)

	e.record(t, domain.EntityChange{
		EntityID: visible[to].ID, EntityType: domain.EntityScreen, ChangeType: domain.ChangeReorder, Timestamp: e.now(),
	})
	return nil
}
