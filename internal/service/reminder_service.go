package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/store"
)

// dueSoonWindow marks pending tasks due within this span.
const dueSoonWindow = 48 * time.Hour

// Summary groups an origin's pending tasks for a report.
type Summary struct {
	PastDue   []model.Task
	DueSoon   []model.Task
	Upcoming  []model.Task
	Completed int
}

// Pending returns the number of open tasks in the summary.
func (s Summary) Pending() int {
	return len(s.PastDue) + len(s.DueSoon) + len(s.Upcoming)
}

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct {
	stores *Registry
}

func NewReminderService(stores *Registry) *ReminderService {
	return &ReminderService{stores: stores}
}

// Summarize buckets tasks relative to now. Past-due and due-soon tasks are
// ordered by due date; tasks without one keep collection order at the end.
func Summarize(tasks []model.Task, now time.Time) Summary {
	var sum Summary
	for _, task := range tasks {
		switch {
		case task.Completed:
			sum.Completed++
		case store.IsPastDueAt(task.DueDate, now):
			sum.PastDue = append(sum.PastDue, task)
		case task.DueDate != nil && task.DueDate.Sub(now) <= dueSoonWindow:
			sum.DueSoon = append(sum.DueSoon, task)
		default:
			sum.Upcoming = append(sum.Upcoming, task)
		}
	}
	byDue := func(list []model.Task) {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i].DueDate, list[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	}
	byDue(sum.PastDue)
	byDue(sum.DueSoon)
	byDue(sum.Upcoming)
	return sum
}

// DailySummary renders the origin's report as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, origin string, now time.Time) (string, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return "", err
	}
	return FormatSummary(Summarize(st.Tasks(), now), now), nil
}

// FormatSummary renders sum as Telegram HTML.
func FormatSummary(sum Summary, now time.Time) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Task report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format(model.DateLayout)))

	if sum.Pending() == 0 {
		builder.WriteString("— nothing pending\n")
	}
	writeGroup(&builder, "⚠️ <b>Past due</b>", sum.PastDue, now)
	writeGroup(&builder, "⏳ <b>Due soon</b>", sum.DueSoon, now)
	writeGroup(&builder, "🟢 <b>To do</b>", sum.Upcoming, now)

	if sum.Completed > 0 {
		builder.WriteString(fmt.Sprintf("\n✅ Completed: %d\n", sum.Completed))
	}
	return strings.TrimSpace(builder.String())
}

func writeGroup(builder *strings.Builder, title string, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		return
	}
	builder.WriteString(title)
	builder.WriteByte('\n')
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now))
	}
	builder.WriteByte('\n')
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("• ")
	sb.WriteString(html.EscapeString(strings.TrimSpace(task.Text)))
	if !task.Uncategorized() {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(strings.TrimSpace(task.Category))))
	}
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>past due</b>", d.Format(model.DateLayout)))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · ≈%d d left", d.Format(model.DateLayout), daysLeft))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
