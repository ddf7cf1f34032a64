package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageCategory
	stagePriority
)

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"
	cbFilterPrefix = "filter:"
)

const (
	btnCancelDialog    = "⏪ Cancel input"
	menuLabelNewTask   = "➕ New task"
	menuLabelTasks     = "📋 All tasks"
	menuLabelPending   = "⏳ Pending"
	menuLabelCompleted = "✅ Completed"
	menuLabelHelp      = "ℹ️ Help"

	textMissingFields = "Please fill all fields"
	textDuplicate     = "⚠️ This task already exists in this category!"
)

// Store is the task store surface the bot uses.
type Store interface {
	Add(ctx context.Context, title, category string, priority model.Priority) (model.Task, error)
	Delete(ctx context.Context, id string) bool
	Toggle(ctx context.Context, id string) (model.Task, bool)
	Get(id string) (model.Task, bool)
	Filter(mode model.Filter) []model.Task
	Counts() service.Counts
}

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type conversationState struct {
	stage    conversationStage
	title    string
	category string
}

// Bot aggregates Telegram API with the task store.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	store         Store
	categories    []string
	log           logrus.FieldLogger
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, store Store, categories []string, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, store, categories, log)
	b.api = api
	b.log.WithField("account", api.Self.UserName).Info("bot authorized")
	return b, nil
}

func newBot(out sender, store Store, categories []string, log logrus.FieldLogger) *Bot {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{
		out:           out,
		store:         store,
		categories:    categories,
		log:           log,
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot api is not configured")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.HandleUpdate(ctx, update); err != nil {
			b.log.WithError(err).Warn("handle update")
		}
	}

	return ctx.Err()
}

// HandleUpdate dispatches one update. Updates are handled one at a time by Start.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return nil
		}
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		return b.sendText(chatID, "⏪ Task creation cancelled.")
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"chat": chatID, "command": msg.Command()}).Debug("command received")
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.hasConversation(chatID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(chatID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(chatID)
	case "newtask":
		return b.startNewTaskConversation(chatID)
	case "tasks":
		return b.sendTaskList(chatID, model.ParseFilter(msg.CommandArguments()))
	case "cancel":
		b.clearConversation(chatID)
		return b.sendText(chatID, "⏪ Task creation cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := "there"
	if msg.From != nil && strings.TrimSpace(msg.From.FirstName) != "" {
		name = strings.TrimSpace(msg.From.FirstName)
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your to-do list.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "Commands:\n" +
	"• /newtask — add a task step by step\n" +
	"• /tasks — show all tasks\n" +
	"• /tasks pending — show open tasks\n" +
	"• /tasks completed — show finished tasks\n" +
	"• /cancel — cancel the current input\n" +
	"• /help — this message"

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, "ℹ️ <b>Help</b>\nUse ✔ to mark a task done or open again and ✖ to delete it.\n\n"+commandList)
}

func (b *Bot) startNewTaskConversation(chatID int64) error {
	b.log.WithField("chat", chatID).Debug("start new task conversation")
	b.setConversation(chatID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, textMissingFields+": the title cannot be empty.", cancelKeyboard())
		}
		state.title = text
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 <b>Step 2:</b> pick a category.", categoryKeyboard(b.categories))
	case stageCategory:
		category, ok := model.MatchCategory(b.categories, text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Pick one of the categories on the keyboard.", categoryKeyboard(b.categories))
		}
		state.category = category
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🎚 <b>Step 3:</b> how important is it?", priorityKeyboard())
	case stagePriority:
		priority, ok := model.ParsePriority(stripPriorityIcon(text))
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Choose low, medium or high.", priorityKeyboard())
		}
		b.clearConversation(chatID)
		return b.finishTaskCreation(ctx, chatID, state.title, state.category, priority)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Input reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, title, category string, priority model.Priority) error {
	task, err := b.store.Add(ctx, title, category, priority)
	switch {
	case errors.Is(err, service.ErrDuplicateTask):
		return b.sendText(chatID, textDuplicate)
	case errors.Is(err, service.ErrInvalidTask):
		return b.sendText(chatID, textMissingFields)
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	b.log.WithFields(logrus.Fields{"task": task.ID, "chat": chatID}).Info("task created via bot")

	summary := fmt.Sprintf("✅ <b>Task saved</b>\n• %s\n• %s · %s",
		escape(task.Title), categoryLabel(task.Category), priorityLabel(task.Priority))
	if err := b.sendText(chatID, summary); err != nil {
		return err
	}
	return b.sendTaskList(chatID, model.FilterAll)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(chatID)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(chatID, model.FilterAll)
	case strings.ToLower(menuLabelPending):
		return true, b.sendTaskList(chatID, model.FilterPending)
	case strings.ToLower(menuLabelCompleted):
		return true, b.sendTaskList(chatID, model.FilterCompleted)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(chatID)
	default:
		return false, nil
	}
}

func (b *Bot) sendTaskList(chatID int64, filter model.Filter) error {
	text, markup := b.renderTaskList(filter)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	var notice string
	filter := model.FilterAll
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		id := strings.TrimPrefix(data, cbTogglePrefix)
		task, ok := b.store.Toggle(ctx, id)
		switch {
		case !ok:
			notice = "Task not found"
		case task.IsCompleted:
			notice = "Marked as done"
		default:
			notice = "Marked as pending"
		}
		b.log.WithFields(logrus.Fields{"chat": chatID, "task": id, "found": ok}).Debug("toggle callback")
	case strings.HasPrefix(data, cbDeletePrefix):
		id := strings.TrimPrefix(data, cbDeletePrefix)
		if b.store.Delete(ctx, id) {
			notice = "Task deleted"
		} else {
			notice = "Task not found"
		}
		b.log.WithFields(logrus.Fields{"chat": chatID, "task": id}).Debug("delete callback")
	case strings.HasPrefix(data, cbFilterPrefix):
		filter = model.ParseFilter(strings.TrimPrefix(data, cbFilterPrefix))
	default:
		b.ack(cb.ID, "")
		return nil
	}

	b.ack(cb.ID, notice)
	return b.refreshTaskList(chatID, cb.Message.MessageID, filter)
}

func (b *Bot) refreshTaskList(chatID int64, messageID int, filter model.Filter) error {
	text, markup := b.renderTaskList(filter)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.out.Request(edit)
	return err
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.WithError(err).Debug("callback ack")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}
