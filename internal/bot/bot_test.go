package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/logging"
	"todo-planner/internal/model"
	"todo-planner/internal/service"
	"todo-planner/internal/storage"
	"todo-planner/internal/store"
)

const chatID int64 = 1001

type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeUsers struct {
	users map[int64]model.User
}

func (f *fakeUsers) UpsertFromTelegram(_ context.Context, telegramID, chatID int64, firstName, lastName, username string) (*model.User, error) {
	u := model.User{ID: uint(len(f.users) + 1), TelegramID: telegramID, ChatID: chatID, FirstName: firstName, LastName: lastName, Username: username}
	f.users[telegramID] = u
	return &u, nil
}

func (f *fakeUsers) ListAll(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type harness struct {
	bot   *Bot
	out   *fakeSender
	users *fakeUsers
	tasks *service.TaskService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	reg := service.NewRegistry(storage.NewMemory(), logging.Discard(),
		store.WithClock(func() time.Time { return now }))
	out := &fakeSender{}
	users := &fakeUsers{users: make(map[int64]model.User)}
	tasks := service.NewTaskService(reg)
	b := newBot(out, users, tasks, service.NewCategoryService(reg), service.NewReminderService(reg), logging.Discard())
	b.now = func() time.Time { return now }
	return &harness{bot: b, out: out, users: users, tasks: tasks}
}

func (h *harness) send(text string) {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatID, FirstName: "Ada"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (h *harness) click(data string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
		Data:    data,
	}})
}

func (h *harness) storedTasks(t *testing.T) []model.Task {
	t.Helper()
	tasks, err := h.tasks.List(context.Background(), Origin(chatID))
	require.NoError(t, err)
	return tasks
}

func TestQuickAddAndToggleButton(t *testing.T) {
	h := newHarness(t)
	h.send("/add Pay rent #Home @2025-06-01")

	tasks := h.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Pay rent", tasks[0].Text)
	assert.Equal(t, "Home", tasks[0].Category)
	require.NotNil(t, tasks[0].DueDate)
	assert.Contains(t, h.users.users, chatID)

	list := h.out.last(t)
	assert.Contains(t, list.Text, "Tasks to do")
	assert.Contains(t, list.Text, "past due")
	markup, ok := list.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	data := markup.InlineKeyboard[0][0].CallbackData
	require.NotNil(t, data)
	assert.Equal(t, cbTogglePrefix+tasks[0].ID, *data)

	h.click(*data)
	assert.Equal(t, 1, h.out.requests)
	assert.True(t, h.storedTasks(t)[0].Completed)
	assert.Contains(t, h.out.last(t).Text, "<s>Pay rent</s>")
}

func TestToggleByIDSurvivesReordering(t *testing.T) {
	h := newHarness(t)
	h.send("/add first")
	h.send("/add second")
	second := h.storedTasks(t)[1]

	h.send("/delete 1")
	h.click(cbTogglePrefix + second.ID)

	tasks := h.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)

	h.click(cbTogglePrefix + "gone")
	assert.Contains(t, h.out.last(t).Text, "no longer exists")
}

func TestToggleCommandOutOfRange(t *testing.T) {
	h := newHarness(t)
	h.send("/add only")
	h.send("/toggle 5")
	assert.Equal(t, "No item 5. Pick a number from 1 to 1.", h.out.last(t).Text)

	h.send("/toggle x")
	assert.Contains(t, h.out.last(t).Text, "/toggle 2")

	h.send("/toggle 1")
	assert.Contains(t, h.out.last(t).Text, "done")
	assert.True(t, h.storedTasks(t)[0].Completed)
}

func TestNewTaskConversation(t *testing.T) {
	h := newHarness(t)
	h.send("/addcategory Home")
	h.send("/newtask")
	h.send("Buy milk")

	kb, ok := h.out.last(t).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Home", kb.Keyboard[0][0].Text)

	h.send("Home")
	h.send("not a date")
	assert.Contains(t, h.out.last(t).Text, "Cannot read that date")
	h.send("2025-11-30")

	tasks := h.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
	assert.Equal(t, "Home", tasks[0].Category)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, "2025-11-30", tasks[0].DueDate.Format(model.DateLayout))
	assert.False(t, h.bot.hasConversation(chatID))
}

func TestConversationSkipAndCancel(t *testing.T) {
	h := newHarness(t)
	h.send("/newtask")
	h.send(btnCancelDialog)
	assert.False(t, h.bot.hasConversation(chatID))

	h.send("/newtask")
	h.send("Call mom")
	h.send("skip")
	h.send(btnSkip)

	tasks := h.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Uncategorized())
	assert.Nil(t, tasks[0].DueDate)
}

func TestCategoryCommandsAndFilter(t *testing.T) {
	h := newHarness(t)
	h.send("/addcategory Work")
	h.send("/addcategory Home")
	h.send("/add report #Work")
	h.send("/add dishes #Home")

	h.send("/categories")
	msg := h.out.last(t)
	assert.Contains(t, msg.Text, "1. Work")
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 3)

	h.click(cbFilterPrefix + "2")
	list := h.out.last(t).Text
	assert.Contains(t, list, "dishes")
	assert.NotContains(t, list, "report")

	h.click(cbFilterPrefix + filterAll)
	list = h.out.last(t).Text
	assert.Contains(t, list, "dishes")
	assert.Contains(t, list, "report")

	h.send("/editcategory 1 Office")
	assert.Contains(t, h.out.last(t).Text, "Office")
	h.send("/deletecategory 1")
	assert.Contains(t, h.out.last(t).Text, "Office")
	h.send("/deletecategory 9")
	assert.Contains(t, h.out.last(t).Text, "No item 9")

	tasks := h.storedTasks(t)
	assert.Equal(t, "Work", tasks[0].Category)
}

func TestReportAndDailyReports(t *testing.T) {
	h := newHarness(t)
	h.send("/add rent @2025-06-01")
	h.send("/report")
	assert.Contains(t, h.out.last(t).Text, "Past due")

	before := len(h.out.sent)
	require.NoError(t, h.bot.SendDailyReports(context.Background()))
	require.Len(t, h.out.sent, before+1)
	assert.Equal(t, chatID, h.out.last(t).ChatID)
	assert.Contains(t, h.out.last(t).Text, "rent")
}

func TestIgnoresGroupChats(t *testing.T) {
	h := newHarness(t)
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: -5, Type: "group"},
		Text: "hello",
	}})
	assert.Empty(t, h.out.sent)
}

func TestUnknownInput(t *testing.T) {
	h := newHarness(t)
	h.send("hello")
	assert.Contains(t, h.out.last(t).Text, "/newtask")
	h.send("/nope")
	assert.Contains(t, h.out.last(t).Text, "Unknown command")
	h.send(menuLabelHelp)
	assert.Contains(t, h.out.last(t).Text, "/addcategory")
}

func TestStartWithoutAPI(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.bot.Start(context.Background()))
}

func TestDeleteCommand(t *testing.T) {
	h := newHarness(t)
	h.send("/add first")
	h.send("/add second")

	h.send("/delete 1")
	assert.Contains(t, h.out.last(t).Text, "«first» deleted")
	tasks := h.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "second", tasks[0].Text)

	h.send("/delete")
	assert.Contains(t, h.out.last(t).Text, "/delete 2")
	h.send("/delete 4")
	assert.Contains(t, h.out.last(t).Text, "Pick a number from 1 to 1")
}

func TestQuickAddUsageReplies(t *testing.T) {
	h := newHarness(t)
	h.send("/add #Home")
	assert.Contains(t, h.out.last(t).Text, "Usage: /add")
	h.send("/add thing @tomorrow")
	assert.Contains(t, h.out.last(t).Text, "Cannot read the due date")
	assert.Empty(t, h.storedTasks(t))
}

func TestFilterCallbackWithBadData(t *testing.T) {
	h := newHarness(t)
	h.send("/addcategory Work")
	h.send("/addcategory Home")

	h.click(cbFilterPrefix + "abc")
	msg := h.out.last(t).Text
	assert.Equal(t, "Pick a number from 1 to 2.", msg)
	assert.NotContains(t, msg, "strconv")

	h.click(cbFilterPrefix + "7")
	assert.Contains(t, h.out.last(t).Text, "No item 7")
}
