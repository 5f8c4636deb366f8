package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/selectors"
	"github.com/lherron/wilds/internal/tracker"
)

type questionnaireResult struct {
	TrackerID       string `json:"tracker_id"`
	QuestionnaireID string `json:"questionnaire_id"`
	QuestionID      string `json:"question_id,omitempty"`
	Name            string `json:"name"`
	Action          string `json:"action"`
}

func newQuestionnaireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questionnaire",
		Aliases: []string{"qn"},
		Short:   "Manage questionnaires, answers and reminders",
		Long: `Questionnaires are periodic sets of questions answered on a binary,
five-point or seven-point scale. Questionnaires are selected by id or name,
questions by id, text or position ("#1" is the first active question), and
submissions by id, unique id prefix or "last".

Examples:
  wilds questionnaire add Habits Mood
  wilds questionnaire update Habits Mood --frequency weekly --weekday 1 --time 09:00 --active
  wilds questionnaire question add Habits Mood "Slept well?" --button Water
  wilds questionnaire fill Habits Mood -a "#1=1" --notes "good day"
  wilds questionnaire journal Habits last`,
	}

	cmd.AddCommand(
		newQuestionnaireLsCmd(),
		newQuestionnaireShowCmd(),
		newQuestionnaireAddCmd(),
		newQuestionnaireUpdateCmd(),
		newQuestionnaireArchiveCmd(),
		newQuestionCmd(),
		newFillCmd(),
		newEntriesCmd(),
		newResponseCmd(),
		newNotifyCmd(),
		newJournalCmd(),
	)
	return cmd
}

// trackerCmd builds a subcommand taking an optional tracker followed by n
// arguments
func trackerCmd(use, short string, n int, run func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   trackerUse(use),
		Short: short,
		Args:  cobra.RangeArgs(n, n+1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			selector, rest, err := trackerArgs(app, args, n)
			if err != nil {
				return err
			}
			return run(app, cmd, selector, rest)
		}),
	}
}

func printQuestionnaireResult(app *appctx.App, cmd *cobra.Command, res questionnaireResult) error {
	if app.Out.Structured() {
		return app.Out.Render(res, nil, nil)
	}
	if res.QuestionID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Question %q (%s) %s\n", res.Name, res.QuestionID, res.Action)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Questionnaire %q (%s) %s\n", res.Name, res.QuestionnaireID, res.Action)
	return nil
}

func newQuestionnaireLsCmd() *cobra.Command {
	var archived bool
	cmd := trackerCmd("ls", "List questionnaires", 0, func(app *appctx.App, cmd *cobra.Command, selector string, _ []string) error {
		t, err := loadTracker(cmd.Context(), app, selector)
		if err != nil {
			return err
		}

		list := []domain.Questionnaire{}
		var rows [][]string
		for _, q := range t.Questionnaires {
			if q.Archived && !archived {
				continue
			}
			list = append(list, q)
			rows = append(rows, []string{
				q.Name,
				describeFrequency(q.Frequency),
				strconv.Itoa(len(tracker.ActiveQuestions(&q))),
				q.ID,
				questionnaireStatus(q),
			})
		}
		return app.Out.Render(list, []string{"NAME", "SCHEDULE", "QUESTIONS", "ID", "STATUS"}, rows)
	})
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "Include archived questionnaires")
	return cmd
}

func newQuestionnaireShowCmd() *cobra.Command {
	return trackerCmd("show <questionnaire>", "Show the questions of a questionnaire", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		t, err := loadTracker(cmd.Context(), app, selector)
		if err != nil {
			return err
		}
		q, err := selectors.Questionnaire(t, args[0])
		if err != nil {
			return err
		}
		if app.Out.Structured() {
			return app.Out.Render(q, nil, nil)
		}

		var rows [][]string
		for i, question := range tracker.ActiveQuestions(q) {
			rows = append(rows, []string{
				"#" + strconv.Itoa(i+1),
				question.Text,
				string(question.ScaleType),
				buttonNames(t, question.SubscribedButtonIDs),
				question.ID,
			})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s), %s, %s\n", q.Name, q.ID, describeFrequency(q.Frequency), questionnaireStatus(*q))
		if q.Description != "" {
			fmt.Fprintf(out, "%s\n", q.Description)
		}
		fmt.Fprintln(out)
		return app.Out.Render(nil, []string{"POS", "QUESTION", "SCALE", "BUTTONS", "ID"}, rows)
	})
}

func newQuestionnaireAddCmd() *cobra.Command {
	var description string
	cmd := trackerCmd("add <name>", "Add an inactive daily questionnaire", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		var res questionnaireResult
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			q, err := app.Editor.CreateQuestionnaire(t, args[0], description)
			if err != nil {
				return err
			}
			res = questionnaireResult{TrackerID: t.TrackerID, QuestionnaireID: q.ID, Name: q.Name, Action: "added"}
			return nil
		})
		if err != nil {
			return err
		}
		return printQuestionnaireResult(app, cmd, res)
	})
	cmd.Flags().StringVarP(&description, "description", "d", "", "Questionnaire description")
	return cmd
}

func newQuestionnaireUpdateCmd() *cobra.Command {
	var (
		name        string
		description string
		frequency   string
		at          string
		weekdays    []int
		interval    int
		active      bool
	)

	cmd := trackerCmd("update <questionnaire>", "Change questionnaire settings and schedule", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		flags := cmd.Flags()
		var res questionnaireResult
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			q, err := selectors.Questionnaire(t, args[0])
			if err != nil {
				return err
			}

			var u tracker.QuestionnaireUpdate
			if flags.Changed("name") {
				u.Name = &name
			}
			if flags.Changed("description") {
				u.Description = &description
			}
			if flags.Changed("active") {
				u.IsActive = &active
			}
			if flags.Changed("frequency") || flags.Changed("time") || flags.Changed("weekday") || flags.Changed("interval") {
				f := q.Frequency
				if flags.Changed("frequency") {
					f.Type = domain.FrequencyType(frequency)
				}
				if flags.Changed("time") {
					f.Time = at
				}
				if flags.Changed("weekday") {
					f.Weekdays = weekdays
				}
				if flags.Changed("interval") {
					f.Interval = interval
				}
				if err := validateFrequency(f); err != nil {
					return err
				}
				u.Frequency = &f
			}

			if err := app.Editor.UpdateQuestionnaire(t, q.ID, u); err != nil {
				return err
			}
			res = questionnaireResult{TrackerID: t.TrackerID, QuestionnaireID: q.ID, Name: q.Name, Action: "updated"}
			return nil
		})
		if err != nil {
			return err
		}
		return printQuestionnaireResult(app, cmd, res)
	})

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&frequency, "frequency", "", "Schedule: daily, weekly or custom")
	cmd.Flags().StringVar(&at, "time", "", "Reminder time as HH:MM")
	cmd.Flags().IntSliceVar(&weekdays, "weekday", nil, "Weekly reminder day, 0 (Sunday) to 6")
	cmd.Flags().IntVar(&interval, "interval", 0, "Hours between custom reminders")
	cmd.Flags().BoolVar(&active, "active", false, "Activate (--active) or deactivate (--active=false) reminders")
	return cmd
}

func newQuestionnaireArchiveCmd() *cobra.Command {
	return trackerCmd("archive <questionnaire>", "Archive and deactivate a questionnaire", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		var res questionnaireResult
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			q, err := selectors.Questionnaire(t, args[0])
			if err != nil {
				return err
			}
			res = questionnaireResult{TrackerID: t.TrackerID, QuestionnaireID: q.ID, Name: q.Name, Action: "archived"}
			return app.Editor.ArchiveQuestionnaire(t, q.ID)
		})
		if err != nil {
			return err
		}
		return printQuestionnaireResult(app, cmd, res)
	})
}

// questionEdit applies an edit to a question of q and returns the question id
type questionEdit func(app *appctx.App, cmd *cobra.Command, t *domain.Tracker, q *domain.Questionnaire, args []string) (string, error)

// questionEditCmd builds a question subcommand taking an optional tracker,
// the questionnaire and n more arguments. use names the questionnaire
// argument too.
func questionEditCmd(use, short string, n int, action string, fn questionEdit) *cobra.Command {
	return trackerCmd(use, short, n+1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		var res questionnaireResult
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			q, err := selectors.Questionnaire(t, args[0])
			if err != nil {
				return err
			}
			questionID, err := fn(app, cmd, t, q, args[1:])
			if err != nil {
				return err
			}
			// the edit may have moved questions; look the question up again
			var text string
			for _, x := range t.Questionnaire(q.ID).Questions {
				if x.ID == questionID {
					text = x.Text
				}
			}
			res = questionnaireResult{TrackerID: t.TrackerID, QuestionnaireID: q.ID, QuestionID: questionID, Name: text, Action: action}
			return nil
		})
		if err != nil {
			return err
		}
		return printQuestionnaireResult(app, cmd, res)
	})
}

func newQuestionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Manage the questions of a questionnaire",
	}

	var (
		addScale   string
		addButtons []string
	)
	add := questionEditCmd("add <questionnaire> <text>", "Add a question", 1, "added", func(app *appctx.App, cmd *cobra.Command, t *domain.Tracker, q *domain.Questionnaire, args []string) (string, error) {
		ids, err := buttonIDs(t, addButtons)
		if err != nil {
			return "", err
		}
		question, err := app.Editor.AddQuestion(t, q.ID, args[0], domain.ScaleType(addScale), ids)
		if err != nil {
			return "", err
		}
		return question.ID, nil
	})
	add.Flags().StringVar(&addScale, "scale", string(domain.ScaleBinary), "Answer scale: binary, five-point or seven-point")
	add.Flags().StringSliceVar(&addButtons, "button", nil, "Button whose clicks the question is about (repeatable)")

	var (
		text       string
		scale      string
		subscribed []string
	)
	update := questionEditCmd("update <questionnaire> <question>", "Change a question", 1, "updated", func(app *appctx.App, cmd *cobra.Command, t *domain.Tracker, q *domain.Questionnaire, args []string) (string, error) {
		question, err := selectors.Question(q, args[0])
		if err != nil {
			return "", err
		}
		flags := cmd.Flags()
		var u tracker.QuestionUpdate
		if flags.Changed("text") {
			u.Text = &text
		}
		if flags.Changed("scale") {
			s := domain.ScaleType(scale)
			u.ScaleType = &s
		}
		if flags.Changed("button") {
			if u.SubscribedButtonIDs, err = buttonIDs(t, subscribed); err != nil {
				return "", err
			}
		}
		return question.ID, app.Editor.UpdateQuestion(t, q.ID, question.ID, u)
	})
	update.Flags().StringVar(&text, "text", "", "New question text")
	update.Flags().StringVar(&scale, "scale", "", "New answer scale")
	update.Flags().StringSliceVar(&subscribed, "button", nil, "Replace the subscribed buttons (empty clears them)")

	mv := questionEditCmd("mv <questionnaire> <question> <position>", "Move an active question to a 1-based position", 2, "moved", func(app *appctx.App, cmd *cobra.Command, t *domain.Tracker, q *domain.Questionnaire, args []string) (string, error) {
		question, err := selectors.Question(q, args[0])
		if err != nil {
			return "", err
		}
		if question.Archived {
			return "", fmt.Errorf("question %q is archived", question.Text)
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid position %q", args[1])
		}
		from := 0
		for _, x := range q.Questions {
			if x.ID == question.ID {
				break
			}
			if !x.Archived {
				from++
			}
		}
		questionID := question.ID
		return questionID, app.Editor.ReorderQuestions(t, q.ID, from, to-1)
	})

	archive := questionEditCmd("archive <questionnaire> <question>", "Archive a question", 1, "archived", func(app *appctx.App, cmd *cobra.Command, t *domain.Tracker, q *domain.Questionnaire, args []string) (string, error) {
		question, err := selectors.Question(q, args[0])
		if err != nil {
			return "", err
		}
		return question.ID, app.Editor.ArchiveQuestion(t, q.ID, question.ID)
	})

	cmd.AddCommand(add, update, mv, archive)
	return cmd
}

func newFillCmd() *cobra.Command {
	var (
		answers []string
		notes   string
	)

	cmd := trackerCmd("fill <questionnaire>", "Submit answers to a questionnaire", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		var filled domain.FilledQuestionnaire
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			q, err := selectors.Questionnaire(t, args[0])
			if err != nil {
				return err
			}
			if q.Archived {
				return fmt.Errorf("questionnaire %q is archived", q.Name)
			}
			responses, err := parseAnswers(q, answers)
			if err != nil {
				return err
			}
			f, err := app.Editor.SubmitQuestionnaire(t, q.ID, responses, notes)
			if err != nil {
				return err
			}
			filled = *f
			return nil
		})
		if err != nil {
			return err
		}

		if app.Out.Structured() {
			return app.Out.Render(filled, nil, nil)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Filled %q (%s) with %d answer(s)\n", filled.QuestionnaireName, filled.ID, len(filled.Responses))
		return nil
	})
	cmd.Long = `Fill submits one answer per --answer flag, written as <question>=<value>.
Values are 0/1 for binary questions, -2..2 for five-point and -3..3 for
seven-point questions. Submitting clears the questionnaire's pending reminders.`
	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "Answer as <question>=<value> (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	return cmd
}

// parseAnswers reads <question>=<value> pairs. The value is split off at
// the last '=' so question texts may contain one.
func parseAnswers(q *domain.Questionnaire, answers []string) ([]domain.QuestionResponse, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("no answers given (use --answer <question>=<value>)")
	}
	out := make([]domain.QuestionResponse, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		i := strings.LastIndex(a, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid answer %q (use <question>=<value>)", a)
		}
		question, err := selectors.Question(q, a[:i])
		if err != nil {
			return nil, err
		}
		value, err := strconv.Atoi(strings.TrimSpace(a[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("invalid value in answer %q", a)
		}
		if seen[question.ID] {
			return nil, fmt.Errorf("question %q answered twice", question.Text)
		}
		seen[question.ID] = true
		out = append(out, domain.QuestionResponse{QuestionID: question.ID, Value: value})
	}
	return out, nil
}

func newEntriesCmd() *cobra.Command {
	var (
		questionnaire string
		limit         int
	)

	cmd := trackerCmd("entries", "List submitted questionnaires, newest first", 0, func(app *appctx.App, cmd *cobra.Command, selector string, _ []string) error {
		t, err := loadTracker(cmd.Context(), app, selector)
		if err != nil {
			return err
		}
		questionnaireID := ""
		if questionnaire != "" {
			q, err := selectors.Questionnaire(t, questionnaire)
			if err != nil {
				return err
			}
			questionnaireID = q.ID
		}

		entries := []domain.FilledQuestionnaire{}
		for _, f := range t.FilledQuestionnaires {
			if questionnaireID == "" || f.QuestionnaireID == questionnaireID {
				entries = append(entries, f)
			}
		}
		slices.SortStableFunc(entries, func(x, y domain.FilledQuestionnaire) int { return cmp.Compare(y.FilledAt, x.FilledAt) })
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}

		rows := make([][]string, 0, len(entries))
		for _, f := range entries {
			rows = append(rows, []string{formatMillis(f.FilledAt), f.QuestionnaireName, describeAnswers(t, f), f.ID})
		}
		return app.Out.Render(entries, []string{"FILLED", "QUESTIONNAIRE", "ANSWERS", "ID"}, rows)
	})
	cmd.Flags().StringVarP(&questionnaire, "questionnaire", "q", "", "Only submissions of this questionnaire")
	cmd.Flags().IntVar(&limit, "limit", 20, "Limit number of submissions (0 = unlimited)")
	return cmd
}

func newResponseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "response",
		Short: "Change submitted answers",
	}

	edit := trackerCmd("edit <submission> <question> <value>", "Change one answer of a submission (put -- before negative values)", 3, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		value, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid value %q", args[2])
		}

		var res questionnaireResult
		_, err = editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			f, err := selectors.Filled(t, args[0])
			if err != nil {
				return err
			}
			questionID := selectors.Parse(args[1]).Token
			text := questionID
			if q := t.Questionnaire(f.QuestionnaireID); q != nil {
				question, err := selectors.Question(q, args[1])
				if err != nil {
					return err
				}
				questionID, text = question.ID, question.Text
			}
			res = questionnaireResult{TrackerID: t.TrackerID, QuestionnaireID: f.QuestionnaireID, QuestionID: questionID, Name: text, Action: "answer changed in " + f.ID}
			return app.Editor.EditResponse(t, f.ID, questionID, value)
		})
		if err != nil {
			return err
		}
		return printQuestionnaireResult(app, cmd, res)
	})

	cmd.AddCommand(edit)
	return cmd
}

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Questionnaire reminders",
	}

	var all bool
	ls := trackerCmd("ls", "List due reminders", 0, func(app *appctx.App, cmd *cobra.Command, selector string, _ []string) error {
		t, err := loadTracker(cmd.Context(), app, selector)
		if err != nil {
			return err
		}
		list := tracker.PendingNotifications(t, app.Editor.Now())
		if all {
			list = t.Notifications
		}
		if list == nil {
			list = []domain.NotificationData{}
		}

		now := app.Editor.Now().UnixMilli()
		rows := make([][]string, 0, len(list))
		for _, n := range list {
			state := "due"
			switch {
			case n.Dismissed:
				state = "dismissed"
			case n.ScheduledFor > now:
				state = "scheduled"
			}
			rows = append(rows, []string{formatMillis(n.ScheduledFor), n.QuestionnaireName, state, n.ID})
		}
		return app.Out.Render(list, []string{"SCHEDULED", "QUESTIONNAIRE", "STATE", "ID"}, rows)
	})
	ls.Flags().BoolVarP(&all, "all", "a", false, "Include scheduled and dismissed reminders")

	schedule := trackerCmd("schedule <questionnaire>", "Schedule the next reminder of an active questionnaire", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		var n domain.NotificationData
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			q, err := selectors.Questionnaire(t, args[0])
			if err != nil {
				return err
			}
			scheduled, err := app.Editor.ScheduleNotification(t, q.ID)
			if err != nil {
				return err
			}
			n = *scheduled
			return nil
		})
		if err != nil {
			return err
		}
		if app.Out.Structured() {
			return app.Out.Render(n, nil, nil)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reminder for %q scheduled at %s (%s)\n", n.QuestionnaireName, formatMillis(n.ScheduledFor), n.ID)
		return nil
	})

	dismiss := trackerCmd("dismiss <reminder>", "Dismiss a reminder by id or unique id prefix", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		var n domain.NotificationData
		_, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
			found, err := notification(t, args[0])
			if err != nil {
				return err
			}
			n = *found
			n.Dismissed = true
			return app.Editor.DismissNotification(t, found.ID)
		})
		if err != nil {
			return err
		}
		if app.Out.Structured() {
			return app.Out.Render(n, nil, nil)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reminder for %q (%s) dismissed\n", n.QuestionnaireName, n.ID)
		return nil
	})

	cmd.AddCommand(ls, schedule, dismiss)
	return cmd
}

func notification(t *domain.Tracker, token string) (*domain.NotificationData, error) {
	var matches []*domain.NotificationData
	for i := range t.Notifications {
		n := &t.Notifications[i]
		if n.ID == token {
			return n, nil
		}
		if strings.HasPrefix(n.ID, token) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("reminder %w: %s", selectors.ErrNotFound, token)
	}
	return nil, fmt.Errorf("%w: %d reminders match %q", selectors.ErrAmbiguous, len(matches), token)
}

type journalResult struct {
	Submission domain.FilledQuestionnaire `json:"submission"`
	Start      int64                      `json:"start"`
	End        int64                      `json:"end"`
	Buttons    []tracker.ButtonClicks     `json:"buttons"`
}

func newJournalCmd() *cobra.Command {
	cmd := trackerCmd("journal <submission>", "Show a submission with the clicks around it", 1, func(app *appctx.App, cmd *cobra.Command, selector string, args []string) error {
		t, err := loadTracker(cmd.Context(), app, selector)
		if err != nil {
			return err
		}
		f, err := selectors.Filled(t, args[0])
		if err != nil {
			return err
		}

		start, end := tracker.TimeWindow(*f, t.FilledQuestionnaires)
		res := journalResult{
			Submission: *f,
			Start:      start,
			End:        end,
			Buttons:    tracker.ClicksInRange(t, journalButtons(t, f), start, end),
		}
		if res.Buttons == nil {
			res.Buttons = []tracker.ButtonClicks{}
		}
		if app.Out.Structured() {
			return app.Out.Render(res, nil, nil)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s filled %s\n", f.QuestionnaireName, formatMillis(f.FilledAt))
		if answers := describeAnswers(t, *f); answers != "" {
			fmt.Fprintf(out, "  %s\n", answers)
		}
		if f.Notes != "" {
			fmt.Fprintf(out, "  Notes: %s\n", f.Notes)
		}
		fmt.Fprintf(out, "\nClicks from %s to %s:\n", formatMillis(start), formatMillis(end))

		rows := make([][]string, 0, len(res.Buttons))
		for _, b := range res.Buttons {
			times := make([]string, 0, len(b.Clicks))
			for _, c := range b.Clicks {
				mark := ""
				if c.IsDecrement {
					mark = "-"
				}
				times = append(times, mark+time.UnixMilli(c.Timestamp).Local().Format("15:04"))
			}
			rows = append(rows, []string{b.ButtonName, strconv.Itoa(domain.DeriveCount(b.Clicks)), strings.Join(times, " ")})
		}
		return app.Out.Render(nil, []string{"BUTTON", "CLICKS", "AT"}, rows)
	})
	cmd.Long = `Journal shows a submitted questionnaire with the clicks recorded around it:
half the time to the neighbouring submissions of the same questionnaire on
each side, at most four hours and at least thirty minutes. Only buttons the
questionnaire's questions subscribe to are shown, or every active button if
none are subscribed.`
	return cmd
}

// journalButtons returns the buttons subscribed by the questions of the
// submission's questionnaire, or every active button when there are none
func journalButtons(t *domain.Tracker, f *domain.FilledQuestionnaire) []string {
	var ids []string
	if q := t.Questionnaire(f.QuestionnaireID); q != nil {
		for _, question := range q.Questions {
			for _, id := range question.SubscribedButtonIDs {
				if !slices.Contains(ids, id) {
					ids = append(ids, id)
				}
			}
		}
	}
	if len(ids) > 0 {
		return ids
	}
	for _, s := range t.ActiveScreens() {
		for _, b := range s.Buttons {
			if !b.Archived {
				ids = append(ids, b.ID)
			}
		}
	}
	return ids
}

func buttonIDs(t *domain.Tracker, selectorList []string) ([]string, error) {
	ids := []string{}
	for _, sel := range selectorList {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		_, b, err := selectors.Button(t, sel)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ids, b.ID) {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func buttonNames(t *domain.Tracker, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, b := t.FindButton(id); b != nil {
			names = append(names, b.Text)
		} else {
			names = append(names, id)
		}
	}
	return strings.Join(names, ", ")
}

// describeAnswers renders a submission's answers with their scale labels
func describeAnswers(t *domain.Tracker, f domain.FilledQuestionnaire) string {
	q := t.Questionnaire(f.QuestionnaireID)
	parts := make([]string, 0, len(f.Responses))
	for _, r := range f.Responses {
		text, value := r.QuestionID, strconv.Itoa(r.Value)
		if q != nil {
			for _, question := range q.Questions {
				if question.ID == r.QuestionID {
					text = question.Text
					value = domain.ResponseLabel(r.Value, question.ScaleType, question.ScaleLabels)
				}
			}
		}
		if len(r.EditHistory) > 0 {
			value += " (edited)"
		}
		parts = append(parts, text+": "+value)
	}
	return strings.Join(parts, "; ")
}

func describeFrequency(f domain.Frequency) string {
	at := f.Time
	if at == "" {
		at = tracker.DefaultNotifyTime
	}
	switch f.Type {
	case domain.FrequencyWeekly:
		days := make([]string, 0, len(f.Weekdays))
		for _, d := range f.Weekdays {
			days = append(days, time.Weekday(d).String()[:3])
		}
		if len(days) == 0 {
			days = append(days, time.Sunday.String()[:3])
		}
		return fmt.Sprintf("weekly on %s at %s", strings.Join(days, ","), at)
	case domain.FrequencyCustom:
		hours := f.Interval
		if hours <= 0 {
			hours = 24
		}
		return fmt.Sprintf("every %dh", hours)
	}
	return "daily at " + at
}

func validateFrequency(f domain.Frequency) error {
	switch f.Type {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyCustom:
	default:
		return fmt.Errorf("unknown frequency %q (use daily, weekly or custom)", f.Type)
	}
	if f.Time != "" {
		if _, err := time.Parse("15:04", f.Time); err != nil {
			return fmt.Errorf("invalid time %q (use HH:MM)", f.Time)
		}
	}
	for _, d := range f.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid weekday %d (use 0 for Sunday to 6)", d)
		}
	}
	if f.Interval < 0 {
		return fmt.Errorf("interval must not be negative")
	}
	return nil
}

func questionnaireStatus(q domain.Questionnaire) string {
	switch {
	case q.Archived:
		return "archived"
	case q.IsActive:
		return "active"
	}
	return "inactive"
}
