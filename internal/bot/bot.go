// Package bot binds per-chat todo stores to a Telegram conversation.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
	"todo-planner/internal/store"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageText
	stageCategory
	stageDueDate
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// sender is the part of the Telegram API the bot writes through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// userStore records who talks to the bot so reports can reach them.
type userStore interface {
	UpsertFromTelegram(ctx context.Context, telegramID, chatID int64, firstName, lastName, username string) (*model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	users         userStore
	taskSvc       *service.TaskService
	categorySvc   *service.CategoryService
	reminderSvc   *service.ReminderService
	logger        *log.Logger
	now           func() time.Time
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, users userStore, taskSvc *service.TaskService, categorySvc *service.CategoryService, reminderSvc *service.ReminderService, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	logger.Info("bot authorized", "account", api.Self.UserName)

	b := newBot(api, users, taskSvc, categorySvc, reminderSvc, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, users userStore, taskSvc *service.TaskService, categorySvc *service.CategoryService, reminderSvc *service.ReminderService, logger *log.Logger) *Bot {
	return &Bot{
		out:           out,
		users:         users,
		taskSvc:       taskSvc,
		categorySvc:   categorySvc,
		reminderSvc:   reminderSvc,
		logger:        logger,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
	}
}

// Origin names the storage scope of a chat.
func Origin(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no telegram api")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
	return ctx.Err()
}

// HandleUpdate dispatches one update. Errors are logged.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("handle callback", "err", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Error("handle message", "err", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger.Info("command", "user", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.Chat.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "add":
		return b.handleQuickAdd(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "toggle":
		return b.handleToggle(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "addcategory":
		return b.handleAddCategory(ctx, msg)
	case "editcategory":
		return b.handleEditCategory(ctx, msg)
	case "deletecategory":
		return b.handleDeleteCategory(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /newtask — add a task step by step\n" +
	"• /add &lt;text&gt; [#category] [@YYYY-MM-DD] — add a task in one line\n" +
	"• /tasks [category] — show tasks to do and completed tasks\n" +
	"• /toggle &lt;n&gt; — mark task n done or not done\n" +
	"• /delete &lt;n&gt; — delete task n\n" +
	"• /categories — list categories\n" +
	"• /addcategory &lt;name&gt; — add a category\n" +
	"• /editcategory &lt;n&gt; &lt;name&gt; — rename category n\n" +
	"• /deletecategory &lt;n&gt; — delete category n\n" +
	"• /report — past-due report now\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👋 Hi, %s!\n<b>I keep your task list.</b>\n\n%s", escape(name), helpText))
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	b.setConversation(msg.Chat.ID, &conversationState{stage: stageText})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what needs doing?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.Chat.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageText:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The task needs some text.", cancelKeyboard())
		}
		state.input.Text = text
		state.stage = stageCategory
		categories, err := b.categorySvc.List(ctx, Origin(msg.Chat.ID))
		if err != nil {
			return err
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category or type one (or «Skip»).", categoryKeyboard(categories))
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date as <code>2025-11-30</code> (or «Skip»).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := model.ParseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Cannot read that date. Use <code>2025-11-30</code> or «Skip».", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		input := state.input
		b.clearConversation(msg.Chat.ID)
		return b.finishTaskCreation(ctx, msg.Chat.ID, input)
	default:
		b.clearConversation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try /newtask again.")
	}
}

func (b *Bot) handleQuickAdd(ctx context.Context, msg *tgbotapi.Message) error {
	input, err := parseQuickAdd(msg.CommandArguments())
	switch {
	case errors.Is(err, errQuickAddDate):
		return b.sendText(msg.Chat.ID, "Cannot read the due date. Use <code>@2025-11-30</code>.")
	case err != nil:
		return b.sendText(msg.Chat.ID, "Usage: /add Buy milk #Home @2025-11-30")
	}
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	return b.finishTaskCreation(ctx, msg.Chat.ID, input)
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.taskSvc.CreateTask(ctx, Origin(chatID), input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	b.logger.Info("task created", "origin", Origin(chatID), "id", task.ID)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• %s\n", escape(task.Text)))
	if !task.Uncategorized() {
		summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", escape(task.Category)))
	}
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.Format(model.DateLayout)))
	}
	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, "")
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
}

func (b *Bot) handleToggle(ctx context.Context, msg *tgbotapi.Message) error {
	index, err := parsePosition(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task number: /toggle 2")
	}
	task, err := b.taskSvc.ToggleTask(ctx, Origin(msg.Chat.ID), index)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, toggledText(task))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	index, err := parsePosition(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task number: /delete 2")
	}
	task, err := b.taskSvc.DeleteTask(ctx, Origin(msg.Chat.ID), index)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	b.logger.Info("task deleted", "origin", Origin(msg.Chat.ID), "id", task.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Task «%s» deleted.", escape(task.Text)))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	categories, err := b.categorySvc.List(ctx, Origin(msg.Chat.ID))
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load categories: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. Add one with /addcategory Work.")
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, formatCategories(categories))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = categoryFilterKeyboard(categories)
	_, err = b.out.Send(reply)
	return err
}

func (b *Bot) handleAddCategory(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if err := b.categorySvc.Add(ctx, Origin(msg.Chat.ID), name); err != nil {
		if errors.Is(err, store.ErrEmptyText) {
			return b.sendText(msg.Chat.ID, "Give the category a name: /addcategory Work")
		}
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🏷 Category «%s» added.", escape(name)))
}

func (b *Bot) handleEditCategory(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /editcategory 1 New name")
	}
	index, err := parsePosition(fields[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /editcategory 1 New name")
	}
	name := strings.Join(fields[1:], " ")
	if err := b.categorySvc.Rename(ctx, Origin(msg.Chat.ID), index, name); err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🏷 Category %d renamed to «%s». Tasks keep their old label.", index+1, escape(name)))
}

func (b *Bot) handleDeleteCategory(ctx context.Context, msg *tgbotapi.Message) error {
	index, err := parsePosition(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the category number: /deletecategory 1")
	}
	name, err := b.categorySvc.Delete(ctx, Origin(msg.Chat.ID), index)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Category «%s» deleted. Tasks keep their label.", escape(name)))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, Origin(msg.Chat.ID), b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyReports sends a summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		chatID := user.ReportChatID()
		text, err := b.reminderSvc.DailySummary(ctx, Origin(chatID), now)
		if err != nil {
			b.logger.Error("build summary", "user", user.TelegramID, "err", err)
			continue
		}
		if err := b.sendText(chatID, text); err != nil {
			b.logger.Error("send summary", "user", user.TelegramID, "err", err)
		}
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "err", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		id := strings.TrimPrefix(data, cbTogglePrefix)
		task, err := b.taskSvc.ToggleTaskByID(ctx, Origin(chatID), id)
		if err != nil {
			if errors.Is(err, service.ErrTaskNotFound) {
				return b.sendText(chatID, "That task no longer exists.")
			}
			return b.sendText(chatID, describeError(err))
		}
		b.logger.Info("task toggled", "origin", Origin(chatID), "id", id, "completed", task.Completed)
		return b.sendTaskList(ctx, chatID, "")
	case strings.HasPrefix(data, cbFilterPrefix):
		category, err := b.resolveFilter(ctx, chatID, strings.TrimPrefix(data, cbFilterPrefix))
		if err != nil {
			return b.sendText(chatID, describeError(err))
		}
		return b.sendTaskList(ctx, chatID, category)
	default:
		return nil
	}
}

func (b *Bot) resolveFilter(ctx context.Context, chatID int64, raw string) (string, error) {
	if raw == filterAll {
		return "", nil
	}
	categories, err := b.categorySvc.List(ctx, Origin(chatID))
	if err != nil {
		return "", err
	}
	index, err := parsePosition(raw)
	if err != nil {
		index = -1
	}
	if index < 0 || index >= len(categories) {
		return "", &store.IndexError{Op: "filter category", Index: index, Len: len(categories)}
	}
	return categories[index], nil
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, category string) error {
	st, err := b.taskSvc.Store(ctx, Origin(chatID))
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	text, markup := renderTaskList(st, category)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(markup.InlineKeyboard) > 0 {
		msg.ReplyMarkup = markup
	}
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, msg *tgbotapi.Message) error {
	_, err := b.users.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
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

func toggledText(task model.Task) string {
	if task.Completed {
		return fmt.Sprintf("✅ «%s» done.", escape(task.Text))
	}
	return fmt.Sprintf("↩️ «%s» back to do.", escape(task.Text))
}

func describeError(err error) string {
	var idxErr *store.IndexError
	switch {
	case errors.As(err, &idxErr):
		if idxErr.Len == 0 {
			return "There is nothing at that number."
		}
		if idxErr.Index < 0 {
			return fmt.Sprintf("Pick a number from 1 to %d.", idxErr.Len)
		}
		return fmt.Sprintf("No item %d. Pick a number from 1 to %d.", idxErr.Index+1, idxErr.Len)
	case errors.Is(err, store.ErrEmptyText):
		return "The text cannot be empty."
	default:
		return fmt.Sprintf("Error: %s", escape(err.Error()))
	}
}
