package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/view"
)

const (
	cbTogglePrefix = "toggle:"
	cbFilterPrefix = "filter:"
	filterAll      = "all"
)

const (
	btnSkip             = "⏭️ Skip"
	btnCancelDialog     = "⏪ Cancel input"
	iconPending         = "⬜"
	iconDone            = "✅"
	iconOverdue         = "⚠️"
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelCategories = "📂 Categories"
	menuLabelHelp       = "ℹ️ Help"
)

// renderTaskList formats both sections and one toggle button per row.
func renderTaskList(src view.Source, category string) (string, tgbotapi.InlineKeyboardMarkup) {
	var builder strings.Builder
	title := "📋 <b>Tasks</b>"
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, view.AllCategories) {
		title += fmt.Sprintf(" · %s", escape(c))
	}
	builder.WriteString(title)
	builder.WriteString("\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, section := range view.Sections(src, category) {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", section.Title))
		if section.Len() == 0 {
			builder.WriteString(fmt.Sprintf("— %s\n", section.Empty))
		}
		for row := range section.Rows() {
			builder.WriteString(formatRow(row))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(toggleButton(row)))
		}
		builder.WriteByte('\n')
	}

	return strings.TrimSpace(builder.String()), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: buttons}
}

func formatRow(row view.Row) string {
	icon := iconPending
	switch {
	case row.Completed:
		icon = iconDone
	case row.PastDue:
		icon = iconOverdue
	}
	text := escape(row.Text)
	if row.Completed {
		text = "<s>" + text + "</s>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, row.Index+1, text))
	if row.Category != "" {
		b.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(row.Category)))
	}
	if due := row.DueLabel(); due != "" {
		if row.PastDue {
			b.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>past due</b>", due))
		} else {
			b.WriteString(fmt.Sprintf("\n   ⏰ %s", due))
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func toggleButton(row view.Row) tgbotapi.InlineKeyboardButton {
	label := fmt.Sprintf("%s #%d · %s", iconDone, row.Index+1, shortTitle(row.Text, 24))
	if row.Completed {
		label = fmt.Sprintf("↩️ #%d · %s", row.Index+1, shortTitle(row.Text, 24))
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, cbTogglePrefix+row.ID)
}

func formatCategories(categories []string) string {
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for i, name := range categories {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(name)))
	}
	builder.WriteString("\nTap one to filter tasks.")
	return builder.String()
}

func categoryFilterKeyboard(categories []string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(view.AllCategories, cbFilterPrefix+filterAll)),
	}
	for i, name := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(shortTitle(name, 32), cbFilterPrefix+strconv.Itoa(i+1)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard offers the origin's categories two per row.
func categoryKeyboard(categories []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	seen := make(map[string]bool)
	var row []tgbotapi.KeyboardButton
	for _, name := range categories {
		if seen[name] {
			continue
		}
		seen[name] = true
		row = append(row, tgbotapi.NewKeyboardButton(name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
