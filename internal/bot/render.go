package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/model"
)

var filterLabels = map[model.Filter]string{
	model.FilterAll:       "All",
	model.FilterPending:   "Pending",
	model.FilterCompleted: "Completed",
}

// Telegram rejects messages over 4096 characters and keyboards over 100
// buttons. Each task costs two buttons and the filter row three.
const (
	maxListText  = 3800
	maxListRows  = 45
	maxListTitle = 200
)

// renderTaskList builds the list message: one line and one button row per
// task, then a row of filter buttons. Tasks past the message limits are
// summarised in a trailing line.
func (b *Bot) renderTaskList(filter model.Filter) (string, tgbotapi.InlineKeyboardMarkup) {
	tasks := b.store.Filter(filter)
	counts := b.store.Counts()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>Tasks · %s</b>\n", strings.ToLower(filterLabels[filter])))
	sb.WriteString(fmt.Sprintf("all %d · pending %d · completed %d\n\n", counts.All, counts.Pending, counts.Completed))

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(tasks) == 0 {
		sb.WriteString("Nothing here. Add a task with /newtask.")
	}
	size := utf8.RuneCountInString(sb.String())
	shown := 0
	for i, task := range tasks {
		line := formatTask(i+1, task)
		if shown == maxListRows || size+utf8.RuneCountInString(line) > maxListText {
			break
		}
		sb.WriteString(line)
		size += utf8.RuneCountInString(line)
		shown++
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✔ %d. %s", i+1, shortTitle(task.Title, 24)), cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("✖", cbDeletePrefix+task.ID),
		))
	}
	if hidden := len(tasks) - shown; hidden > 0 {
		sb.WriteString(fmt.Sprintf("\n…and %d more (use /tasks pending|completed or the web page)", hidden))
	}

	var filterRow []tgbotapi.InlineKeyboardButton
	for _, f := range model.Filters {
		label := filterLabels[f]
		if f == filter {
			label = "• " + label
		}
		filterRow = append(filterRow, tgbotapi.NewInlineKeyboardButtonData(label, cbFilterPrefix+string(f)))
	}
	rows = append(rows, filterRow)

	return strings.TrimSpace(sb.String()), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatTask(n int, task model.Task) string {
	title := escape(shortTitle(task.Title, maxListTitle))
	if task.IsCompleted {
		title = "<s>" + title + "</s>"
	}
	return fmt.Sprintf("%d. %s\n   %s · %s\n", n, title, categoryLabel(task.Category), priorityLabel(task.Priority))
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

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "study":
		icon = "🎓"
	case "work":
		icon = "💼"
	case "shopping":
		icon = "🛒"
	case "health":
		icon = "🩺"
	case "personal":
		icon = "🧩"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(base))
}

var priorityIcons = map[model.Priority]string{
	model.PriorityLow:    "🟢",
	model.PriorityMedium: "🟡",
	model.PriorityHigh:   "🔴",
}

func priorityLabel(p model.Priority) string {
	icon, ok := priorityIcons[p]
	if !ok {
		icon = "⚪"
	}
	return fmt.Sprintf("%s %s", icon, escape(string(p)))
}

// stripPriorityIcon turns a keyboard label such as "🔴 high" back into "high".
func stripPriorityIcon(text string) string {
	for _, icon := range priorityIcons {
		text = strings.TrimPrefix(text, icon)
	}
	return strings.TrimSpace(text)
}
