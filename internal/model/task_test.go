package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskUnmarshalBareDate(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"text":"Pay rent","completed":false,"dueDate":"2024-05-01","category":"Home"}`), &task)
	require.NoError(t, err)

	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Pay rent", task.Text)
	assert.Equal(t, "Home", task.Category)
}

func TestTaskUnmarshalNullAndMissingDueDate(t *testing.T) {
	var withNull, without Task
	require.NoError(t, json.Unmarshal([]byte(`{"text":"a","completed":true,"dueDate":null}`), &withNull))
	require.NoError(t, json.Unmarshal([]byte(`{"text":"b","completed":false}`), &without))

	assert.Nil(t, withNull.DueDate)
	assert.True(t, withNull.Completed)
	assert.Nil(t, without.DueDate)
	assert.True(t, without.Uncategorized())
}

func TestTaskRoundTrip(t *testing.T) {
	due := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	in := Task{ID: "abc", Text: "Ship", DueDate: &due, Category: "Work"}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","text":"Ship","completed":false,"dueDate":"2025-01-02T15:04:05Z","category":"Work"}`, string(data))

	var out Task
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTaskUnmarshalRejectsBadDate(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"text":"x","dueDate":"tomorrow"}`), &task)
	assert.Error(t, err)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, NoCategory, CategoryLabel("  "))
	assert.Equal(t, "Work", CategoryLabel(" Work "))
}

func TestUserReportChatID(t *testing.T) {
	assert.Equal(t, int64(55), User{TelegramID: 1, ChatID: 55}.ReportChatID())
	assert.Equal(t, int64(1), User{TelegramID: 1}.ReportChatID())
}
