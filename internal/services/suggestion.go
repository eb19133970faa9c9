package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"google.golang.org/api/option"

	"studyden-backend/internal/models"
)

// SuggestionService asks Gemini what to study next and summarizes finished
// sessions. It is strictly advisory: every caller must keep working when a
// call fails, so the service never touches session state itself.
type SuggestionService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewSuggestionService(apiKey string, concurrentReqs int) (*SuggestionService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &SuggestionService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *SuggestionService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *SuggestionService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *SuggestionService) releaseRate() {
	s.rateChan <- struct{}{}
}

// NextSession proposes a course/task/exam target and duration for the next
// focus session based on what is currently on the student's plate.
func (s *SuggestionService) NextSession(ctx context.Context, courses []models.Course, tasks []models.Task, exams []models.Exam) (*models.SessionSuggestion, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildNextSessionPrompt(courses, tasks, exams)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := extractText(resp)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var parsed struct {
		CourseID               string `json:"course_id"`
		TaskID                 string `json:"task_id"`
		ExamID                 string `json:"exam_id"`
		PlannedDurationMinutes int    `json:"planned_duration_minutes"`
		Reason                 string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(rawText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
	}

	suggestion := &models.SessionSuggestion{
		CourseID:               parseOptionalID(parsed.CourseID, courseIDs(courses)),
		TaskID:                 parseOptionalID(parsed.TaskID, taskIDs(tasks)),
		ExamID:                 parseOptionalID(parsed.ExamID, examIDs(exams)),
		PlannedDurationMinutes: parsed.PlannedDurationMinutes,
		Reason:                 strings.TrimSpace(parsed.Reason),
	}

	// A session targets a task or an exam, never both.
	if suggestion.TaskID != nil {
		suggestion.ExamID = nil
	}
	if suggestion.PlannedDurationMinutes <= 0 || suggestion.PlannedDurationMinutes > 180 {
		suggestion.PlannedDurationMinutes = 25
	}
	if suggestion.Reason == "" {
		suggestion.Reason = "A short focus block is a good default when nothing is urgent."
	}

	return suggestion, nil
}

// SummarizeSession turns a finished session's raw notes into a short recap.
func (s *SuggestionService) SummarizeSession(ctx context.Context, sess *models.StudySession, notes string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	minutes := sess.PlannedDurationMinutes
	if sess.DurationMinutes != nil {
		minutes = *sess.DurationMinutes
	}

	prompt := fmt.Sprintf(`Summarize these study session notes in 2-3 plain sentences for the student's history view.
Mention what was worked on and anything left open. Return plain text only, no markdown.

Session length: %d minutes, outcome: %s.

Notes:
%s`, minutes, strings.ToLower(sess.Status), notes)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("Gemini returned an empty summary")
	}
	return text, nil
}

func buildNextSessionPrompt(courses []models.Course, tasks []models.Task, exams []models.Exam) string {
	var b strings.Builder

	b.WriteString(`You are a study planner. Given the student's courses, open tasks and upcoming exams,
pick ONE thing to focus on next and a session length of 25, 50 or 90 minutes.
Prefer imminent exams, then overdue tasks, then the nearest due date.
Return ONLY a valid JSON object:
{"course_id": "uuid or empty", "task_id": "uuid or empty", "exam_id": "uuid or empty", "planned_duration_minutes": 25, "reason": "one sentence"}
Set at most one of task_id and exam_id.

`)

	b.WriteString("Courses:\n")
	for _, c := range courses {
		fmt.Fprintf(&b, "- %s: [%s] %s\n", c.ID, c.Code, c.Title)
	}

	b.WriteString("\nOpen tasks:\n")
	for _, t := range tasks {
		if t.Status != models.TaskOpen {
			continue
		}
		due := "no due date"
		if t.DueAt != nil {
			due = "due " + t.DueAt.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", t.ID, t.Title, due)
	}

	b.WriteString("\nUpcoming exams:\n")
	for _, e := range exams {
		fmt.Fprintf(&b, "- %s: %s on %s\n", e.ID, e.Title, e.StartsAt.Format("2006-01-02"))
	}

	return b.String()
}

func parseOptionalID(raw string, known map[uuid.UUID]bool) *uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || !known[id] {
		// The model occasionally invents identifiers; drop anything we
		// did not send it.
		return nil
	}
	return &id
}

func courseIDs(courses []models.Course) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(courses))
	for _, c := range courses {
		m[c.ID] = true
	}
	return m
}

func taskIDs(tasks []models.Task) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(tasks))
	for _, t := range tasks {
		m[t.ID] = true
	}
	return m
}

func examIDs(exams []models.Exam) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(exams))
	for _, e := range exams {
		m[e.ID] = true
	}
	return m
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
