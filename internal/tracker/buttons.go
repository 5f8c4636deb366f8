package tracker

import (
	"slices"
	"time"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/id"
)

func (e *Editor) button(t *domain.Tracker, buttonID string) (*domain.Screen, *domain.Button, error) {
	s, b := t.FindButton(buttonID)
	if b == nil {
		return nil, nil, notFound(domain.EntityButton, buttonID)
	}
	return s, b, nil
}

// clickTime returns a click timestamp unique within the button. Clicks are
// identified by timestamp, so two clicks in the same millisecond would
// collapse into one on merge.
func clickTime(b *domain.Button, now int64) int64 {
	for _, c := range b.Clicks {
		if c.Timestamp >= now {
			now = c.Timestamp + 1
		}
	}
	return now
}

// Date formats a click date the way exported data does (UTC calendar day)
func Date(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.DateOnly)
}

// AddClick records an increment. Clicks do not bump the button version.
func (e *Editor) AddClick(t *domain.Tracker, buttonID string) (domain.ClickRecord, error) {
	return e.click(t, buttonID, false)
}

// DecrementClick records a decrement; it refuses to go below zero.
func (e *Editor) DecrementClick(t *domain.Tracker, buttonID string) (domain.ClickRecord, error) {
	return e.click(t, buttonID, true)
}

func (e *Editor) click(t *domain.Tracker, buttonID string, decrement bool) (domain.ClickRecord, error) {
	_, b, err := e.button(t, buttonID)
	if err != nil {
		return domain.ClickRecord{}, err
	}
	if decrement && domain.DeriveCount(b.Clicks) == 0 {
		return domain.ClickRecord{}, ErrZeroCount
	}

	ts := clickTime(b, e.now())
	c := domain.ClickRecord{Timestamp: ts, Date: Date(ts), IsDecrement: decrement}
	b.Clicks = append(b.Clicks, c)
	b.Count = domain.DeriveCount(b.Clicks)
	e.stamp(t, ts)
	return c, nil
}

// AddButton appends a button to a screen
func (e *Editor) AddButton(t *domain.Tracker, screenID, text string) (*domain.Button, error) {
	text, err := NormalizeName(text)
	if err != nil {
		return nil, err
	}
	s, err := e.screen(t, screenID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	s.Buttons = append(s.Buttons, domain.Button{
		Envelope: domain.Envelope{ID: e.newID(id.KindButton), EntityVersion: 1, CreatedAt: now, LastModified: now},
		Text:     text,
		Clicks:   []domain.ClickRecord{},
	})
	e.stamp(t, now)
	return &s.Buttons[len(s.Buttons)-1], nil
}

// RenameButton renames a button
func (e *Editor) RenameButton(t *domain.Tracker, buttonID, text string) error {
	text, err := NormalizeName(text)
	if err != nil {
		return err
	}
	_, b, err := e.button(t, buttonID)
	if err != nil {
		return err
	}

	now := e.now()
	old := b.Text
	b.Text = text
	b.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: buttonID, EntityType: domain.EntityButton, ChangeType: domain.ChangeRename,
		Timestamp: now, OldValue: old, NewValue: text,
	})
	return nil
}

// ArchiveButton hides a button
func (e *Editor) ArchiveButton(t *domain.Tracker, buttonID string) error {
	return e.setButtonArchived(t, buttonID, true)
}

// UnarchiveButton restores a button
func (e *Editor) UnarchiveButton(t *domain.Tracker, buttonID string) error {
	return e.setButtonArchived(t, buttonID, false)
}

func (e *Editor) setButtonArchived(t *domain.Tracker, buttonID string, archived bool) error {
	_, b, err := e.button(t, buttonID)
	if err != nil {
		return err
	}
	now := e.now()
	b.Archived = archived
	b.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: buttonID, EntityType: domain.EntityButton, ChangeType: archiveChange(archived), Timestamp: now,
	})
	return nil
}

// DeleteButton removes a button and its clicks permanently
func (e *Editor) DeleteButton(t *domain.Tracker, buttonID string) error {
	s, _, err := e.button(t, buttonID)
	if err != nil {
		return err
	}
	e.record(t, domain.EntityChange{
		EntityID: buttonID, EntityType: domain.EntityButton, ChangeType: domain.ChangeDelete, Timestamp: e.now(),
	})
	s.Buttons = slices.DeleteFunc(s.Buttons, func(b domain.Button) bool { return b.ID == buttonID })
	return nil
}

func buttonArchived(b *domain.Button) bool { return b.Archived }

// ReorderButton moves an active button between positions among the active
// buttons of its screen. Archived buttons are kept after the active ones.
func (e *Editor) ReorderButton(t *domain.Tracker, screenID string, from, to int) error {
	s, err := e.screen(t, screenID)
	if err != nil {
		return err
	}
	visible, hidden := splitArchived(s.Buttons, buttonArchived)
	if err := moveIndex(visible, from, to); err != nil {
		return err
	}
	s.Buttons = append(visible, hidden...)

	e.record(t, domain.EntityChange{
		EntityID: visible[to].ID, EntityType: domain.EntityButton, ChangeType: domain.ChangeReorder, Timestamp: e.now(),
	})
	return nil
}

// MoveButton moves a button to another screen at position index among its
// active buttons. A negative or too large index appends.
func (e *Editor) MoveButton(t *domain.Tracker, buttonID, destScreenID string, index int) error {
	src, b, err := e.button(t, buttonID)
	if err != nil {
		return err
	}
	dst, err := e.screen(t, destScreenID)
	if err != nil {
		return err
	}
	if src.ID == dst.ID {
		return nil
	}

	now := e.now()
	moved := b.Clone()
	moved.Touch(now)
	srcID := src.ID
	src.Buttons = slices.DeleteFunc(src.Buttons, func(x domain.Button) bool { return x.ID == buttonID })

	visible, hidden := splitArchived(dst.Buttons, buttonArchived)
	if index < 0 || index > len(visible) {
		index = len(visible)
	}
	visible = slices.Insert(visible, index, moved)
	dst.Buttons = append(visible, hidden...)

	e.record(t, domain.EntityChange{
		EntityID: buttonID, EntityType: domain.EntityButton, ChangeType: domain.ChangeMove,
		Timestamp: now, OldValue: srcID, NewValue: destScreenID,
	})
	return nil
}
