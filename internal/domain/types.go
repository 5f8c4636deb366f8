package domain

// EntityType identifies the kind of entity a change-log record refers to
type EntityType string

const (
	EntityScreen        EntityType = "screen"
	EntityButton        EntityType = "button"
	EntityQuestionnaire EntityType = "questionnaire"
	EntityQuestion      EntityType = "question"
	EntityResponse      EntityType = "response"
)

// Valid reports whether t is a known entity type
func (t EntityType) Valid() bool {
	switch t {
	case EntityScreen, EntityButton, EntityQuestionnaire, EntityQuestion, EntityResponse:
		return true
	}
	return false
}

// ChangeType identifies the operation a change-log record describes
type ChangeType string

const (
	ChangeRename    ChangeType = "rename"
	ChangeArchive   ChangeType = "archive"
	ChangeUnarchive ChangeType = "unarchive"
	ChangeDelete    ChangeType = "delete"
	ChangeReorder   ChangeType = "reorder"
	ChangeMove      ChangeType = "move"
	ChangeCreate    ChangeType = "create"
	ChangeUpdate    ChangeType = "update"
	ChangeEdit      ChangeType = "edit"
)

// Valid reports whether c is a known change type
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeRename, ChangeArchive, ChangeUnarchive, ChangeDelete, ChangeReorder,
		ChangeMove, ChangeCreate, ChangeUpdate, ChangeEdit:
		return true
	}
	return false
}

// ScaleType is the answer scale of a questionnaire question
type ScaleType string

const (
	ScaleBinary     ScaleType = "binary"
	ScaleFivePoint  ScaleType = "five-point"
	ScaleSevenPoint ScaleType = "seven-point"
)

// FrequencyType is the schedule kind of a questionnaire
type FrequencyType string

const (
	FrequencyDaily  FrequencyType = "daily"
	FrequencyWeekly FrequencyType = "weekly"
	FrequencyCustom FrequencyType = "custom"
)

// Envelope carries the replication metadata shared by every entity.
// A zero EntityVersion reads as 1 and a zero LastModified as "never".
type Envelope struct {
	ID            string `json:"id" validate:"required"`
	EntityVersion int    `json:"entityVersion,omitempty" validate:"gte=0"`
	LastModified  int64  `json:"lastModified,omitempty" validate:"gte=0"`
	Archived      bool   `json:"archived,omitempty"`
	CreatedAt     int64  `json:"createdAt,omitempty" validate:"gte=0"`
}

// Base returns the envelope itself; embedding types inherit it.
func (e *Envelope) Base() *Envelope {
	return e
}

// Version returns the entity version with the implicit default applied
func (e Envelope) Version() int {
	if e.EntityVersion < 1 {
		return 1
	}
	return e.EntityVersion
}

// Touch bumps the version and modification time after a mutation
func (e *Envelope) Touch(now int64) {
	e.EntityVersion = e.Version() + 1
	if now > e.LastModified {
		e.LastModified = now
	}
}

// ClickRecord is a single increment or decrement of a button
type ClickRecord struct {
	Timestamp   int64  `json:"timestamp" validate:"gte=0"`
	Date        string `json:"date"`
	IsDecrement bool   `json:"isDecrement,omitempty"`
}

// Button is a countable activity on a screen
type Button struct {
	Envelope `yaml:",inline"`
	Text     string        `json:"text"`
	Count    int           `json:"count"`
	Clicks   []ClickRecord `json:"clicks" validate:"dive"`
}

// Label returns the button text
func (b *Button) Label() string { return b.Text }

// SetLabel replaces the button text
func (b *Button) SetLabel(s string) { b.Text = s }

// Screen groups buttons
type Screen struct {
	Envelope `yaml:",inline"`
	Name     string   `json:"name"`
	Buttons  []Button `json:"buttons" validate:"dive"`
}

// Label returns the screen name
func (s *Screen) Label() string { return s.Name }

// SetLabel replaces the screen name
func (s *Screen) SetLabel(name string) { s.Name = name }

// EntityChange is one append-only record of the change log.
// The response-edit fields are only set for EntityResponse records.
type EntityChange struct {
	EntityID                string     `json:"entityId" validate:"required"`
	EntityType              EntityType `json:"entityType" validate:"required,oneof=screen button questionnaire question response"`
	ChangeType              ChangeType `json:"changeType" validate:"required,oneof=rename archive unarchive delete reorder move create update edit"`
	Timestamp               int64      `json:"timestamp" validate:"gte=0"`
	OldValue                string     `json:"oldValue,omitempty"`
	NewValue                string     `json:"newValue,omitempty"`
	QuestionnaireResponseID string     `json:"questionnaireResponseId,omitempty"`
	QuestionID              string     `json:"questionId,omitempty"`
	PreviousValue           *int       `json:"previousValue,omitempty"`
	NewResponseValue        *int       `json:"newResponseValue,omitempty"`
}

// ChangeKey is the deduplication key of a change-log record
type ChangeKey struct {
	EntityID   string
	Timestamp  int64
	ChangeType ChangeType
}

// Key returns the deduplication key of the record
func (c EntityChange) Key() ChangeKey {
	return ChangeKey{EntityID: c.EntityID, Timestamp: c.Timestamp, ChangeType: c.ChangeType}
}

// BinaryLabels are the labels of a yes/no question
type BinaryLabels struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// FivePointLabels are the labels of a five-point question
type FivePointLabels struct {
	VeryNegative string `json:"veryNegative"`
	Negative     string `json:"negative"`
	Neutral      string `json:"neutral"`
	Positive     string `json:"positive"`
	VeryPositive string `json:"veryPositive"`
}

// SevenPointLabels are the labels of a seven-point question
type SevenPointLabels struct {
	VeryNegative     string `json:"veryNegative"`
	Negative         string `json:"negative"`
	SomewhatNegative string `json:"somewhatNegative"`
	Neutral          string `json:"neutral"`
	SomewhatPositive string `json:"somewhatPositive"`
	Positive         string `json:"positive"`
	VeryPositive     string `json:"veryPositive"`
}

// ScaleLabels holds optional custom labels per scale type
type ScaleLabels struct {
	Binary     *BinaryLabels     `json:"binary,omitempty"`
	FivePoint  *FivePointLabels  `json:"fivePoint,omitempty"`
	SevenPoint *SevenPointLabels `json:"sevenPoint,omitempty"`
}

// Question is one question of a questionnaire
type Question struct {
	Envelope            `yaml:",inline"`
	Text                string       `json:"text"`
	ScaleType           ScaleType    `json:"scaleType" validate:"required,oneof=binary five-point seven-point"`
	Order               int          `json:"order"`
	SubscribedButtonIDs []string     `json:"subscribedButtonIds"`
	ScaleLabels         *ScaleLabels `json:"scaleLabels,omitempty"`
}

// Label returns the question text
func (q *Question) Label() string { return q.Text }

// SetLabel replaces the question text
func (q *Question) SetLabel(s string) { q.Text = s }

// Frequency describes when a questionnaire is due
type Frequency struct {
	Type     FrequencyType `json:"type" validate:"required,oneof=daily weekly custom"`
	Interval int           `json:"interval,omitempty" validate:"gte=0"` // hours, custom only
	Time     string        `json:"time,omitempty"`                      // HH:MM
	Weekdays []int         `json:"weekdays,omitempty" validate:"dive,gte=0,lte=6"`
}

// Questionnaire is a periodic set of questions
type Questionnaire struct {
	Envelope    `yaml:",inline"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Frequency   Frequency  `json:"frequency"`
	Questions   []Question `json:"questions" validate:"dive"`
	IsActive    bool       `json:"isActive"`
}

// Label returns the questionnaire name
func (q *Questionnaire) Label() string { return q.Name }

// SetLabel replaces the questionnaire name
func (q *Questionnaire) SetLabel(name string) { q.Name = name }

// ResponseEdit records one change of a response value
type ResponseEdit struct {
	Timestamp     int64 `json:"timestamp"`
	PreviousValue int   `json:"previousValue"`
	NewValue      int   `json:"newValue"`
}

// QuestionResponse is the answer to one question.
// Value ranges: binary 0..1, five-point -2..2, seven-point -3..3.
type QuestionResponse struct {
	QuestionID   string         `json:"questionId" validate:"required"`
	Value        int            `json:"value" validate:"gte=-3,lte=3"`
	LastModified int64          `json:"lastModified,omitempty"`
	EditHistory  []ResponseEdit `json:"editHistory,omitempty"`
}

// FilledQuestionnaire is a submitted questionnaire
type FilledQuestionnaire struct {
	ID                string             `json:"id" validate:"required"`
	QuestionnaireID   string             `json:"questionnaireId" validate:"required"`
	QuestionnaireName string             `json:"questionnaireName"`
	Responses         []QuestionResponse `json:"responses" validate:"dive"`
	FilledAt          int64              `json:"filledAt" validate:"gte=0"`
	Date              string             `json:"date"`
	Notes             string             `json:"notes,omitempty"`
	LastModified      int64              `json:"lastModified,omitempty"`
}

// NotificationData is a scheduled questionnaire reminder
type NotificationData struct {
	ID                string `json:"id" validate:"required"`
	QuestionnaireID   string `json:"questionnaireId" validate:"required"`
	QuestionnaireName string `json:"questionnaireName"`
	ScheduledFor      int64  `json:"scheduledFor" validate:"gte=0"`
	Dismissed         bool   `json:"dismissed,omitempty"`
	CreatedAt         int64  `json:"createdAt"`
}

// Tracker is the aggregate that is stored, exported and merged
type Tracker struct {
	TrackerID            string                `json:"trackerId" validate:"required"`
	TrackerName          string                `json:"trackerName"`
	Screens              []Screen              `json:"screens" validate:"dive"`
	CurrentScreenID      string                `json:"currentScreenId"`
	Questionnaires       []Questionnaire       `json:"questionnaires" validate:"dive"`
	FilledQuestionnaires []FilledQuestionnaire `json:"filledQuestionnaires" validate:"dive"`
	Notifications        []NotificationData    `json:"notifications" validate:"dive"`
	Archived             bool                  `json:"archived,omitempty"`
	SchemaVersion        int                   `json:"schemaVersion,omitempty" validate:"gte=0"`
	ChangeLog            []EntityChange        `json:"changeLog" validate:"dive"`
	LastModified         int64                 `json:"lastModified,omitempty" validate:"gte=0"`
}

// DeriveCount computes a button count from its click log: increments minus
// decrements, floored at zero.
func DeriveCount(clicks []ClickRecord) int {
	n := 0
	for _, c := range clicks {
		if c.IsDecrement {
			n--
		} else {
			n++
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// Screen returns the screen with the given id, or nil
func (t *Tracker) Screen(id string) *Screen {
	for i := range t.Screens {
		if t.Screens[i].ID == id {
			return &t.Screens[i]
		}
	}
	return nil
}

// FindButton returns the button with the given id and the screen that owns it
func (t *Tracker) FindButton(id string) (*Screen, *Button) {
	for i := range t.Screens {
		s := &t.Screens[i]
		for j := range s.Buttons {
			if s.Buttons[j].ID == id {
				return s, &s.Buttons[j]
			}
		}
	}
	return nil, nil
}

// Questionnaire returns the questionnaire with the given id, or nil
func (t *Tracker) Questionnaire(id string) *Questionnaire {
	for i := range t.Questionnaires {
		if t.Questionnaires[i].ID == id {
			return &t.Questionnaires[i]
		}
	}
	return nil
}

// ActiveScreens returns the non-archived screens in order
func (t *Tracker) ActiveScreens() []*Screen {
	var out []*Screen
	for i := range t.Screens {
		if !t.Screens[i].Archived {
			out = append(out, &t.Screens[i])
		}
	}
	return out
}

// HasArchivedItems reports whether any screen or button is archived
func (t *Tracker) HasArchivedItems() bool {
	for _, s := range t.Screens {
		if s.Archived {
			return true
		}
		for _, b := range s.Buttons {
			if b.Archived {
				return true
			}
		}
	}
	return false
}

// Log appends a change-log record
func (t *Tracker) Log(change EntityChange) {
	t.ChangeLog = append(t.ChangeLog, change)
}
