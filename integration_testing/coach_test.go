package integration_testing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/fitmate/internal/coach"
	"github.com/2beens/fitmate/internal/plan"
	"github.com/2beens/fitmate/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProfileJSON = `{
	"age": 34,
	"gender": "male",
	"height": 182,
	"weight": 88,
	"activityLevel": "light",
	"primaryGoal": "muscle_gain",
	"fitnessLevel": "beginner",
	"workoutFrequency": "2_days",
	"injuries": ["Knee Pain"]
}`

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, body string) (int, []byte) {
	t := s.T()

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) saveProfile(ctx context.Context, userID string) {
	status, respBytes := s.doRequest(ctx, http.MethodPut, fmt.Sprintf("/users/%s/profile", userID), testProfileJSON)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))
}

func (s *IntegrationTestSuite) TestProfileAndPlan() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	userID := gofakeit.UUID()

	status, _ := s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/users/%s/profile", userID), "")
	assert.Equal(t, http.StatusNotFound, status)

	s.saveProfile(ctx, userID)

	status, respBytes := s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/users/%s/plan", userID), "")
	require.Equal(t, http.StatusOK, status, string(respBytes))

	var userPlan plan.Plan
	require.NoError(t, json.Unmarshal(respBytes, &userPlan))
	assert.Equal(t, plan.BMIOverweight, userPlan.BMICategory)
	assert.Len(t, userPlan.Workouts, 2)
	assert.Equal(t, coach.AdjustmentNone, userPlan.DifficultyMultiplier)
	for _, w := range userPlan.Workouts {
		assert.NotContains(t, w.Exercises, "Squats")
	}
}

func (s *IntegrationTestSuite) TestWorkoutFeedbackPersisted() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	userID := gofakeit.UUID()
	s.saveProfile(ctx, userID)

	for i := 0; i < 3; i++ {
		status, respBytes := s.doRequest(ctx, http.MethodPost, fmt.Sprintf("/users/%s/feedback/workout", userID),
			`{"workoutId": "leg-day", "difficulty": "too_hard", "enjoyment": 2, "completionRate": 50}`,
		)
		require.Equal(t, http.StatusCreated, status, string(respBytes))
	}

	status, respBytes := s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/users/%s/difficulty", userID), "")
	require.Equal(t, http.StatusOK, status)
	var difficulty coach.DifficultyResponse
	require.NoError(t, json.Unmarshal(respBytes, &difficulty))
	assert.Equal(t, coach.AdjustmentDecrease, difficulty.Multiplier)

	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = $1`,
		storage.UserKeyPrefix(userID)+coach.WorkoutFeedbackKey,
	).Scan(&value)
	require.NoError(t, err)

	var persisted []coach.WorkoutFeedback
	require.NoError(t, json.Unmarshal([]byte(value), &persisted))
	require.Len(t, persisted, 3)
	assert.Equal(t, coach.DifficultyTooHard, persisted[0].Difficulty)
	assert.False(t, persisted[0].Timestamp.IsZero())
}

func (s *IntegrationTestSuite) TestChatRateLimited() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	userID := gofakeit.UUID()
	otherUserID := gofakeit.UUID()
	s.saveProfile(ctx, userID)
	s.saveProfile(ctx, otherUserID)
	path := fmt.Sprintf("/users/%s/chat", userID)

	for i := 0; i < testChatLimit; i++ {
		status, respBytes := s.doRequest(ctx, http.MethodPost, path, `{"message": "what should I eat after training?"}`)
		require.Equal(t, http.StatusOK, status, string(respBytes))

		var chat coach.ChatResponse
		require.NoError(t, json.Unmarshal(respBytes, &chat))
		assert.NotEmpty(t, chat.Response)
	}

	status, _ := s.doRequest(ctx, http.MethodPost, path, `{"message": "one more"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)

	// limits are per user
	status, _ = s.doRequest(ctx, http.MethodPost, fmt.Sprintf("/users/%s/chat", otherUserID), `{"message": "hi"}`)
	assert.Equal(t, http.StatusOK, status)
}
