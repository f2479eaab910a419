package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rvclass/examroom-backend/internal/model"
)

func TestWriteExamReport(t *testing.T) {
	exam := &model.Exam{ID: uuid.New(), Title: "OS Final", TotalMarks: 20}

	submittedID := uuid.New()
	inProgressID := uuid.New()
	usn := "1RV21CS042"

	started := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	finished := started.Add(40 * time.Minute)
	score := 17

	attempts := []model.Attempt{
		{
			ID:         uuid.New(),
			ExamID:     exam.ID,
			StudentID:  submittedID,
			StartedAt:  started,
			FinishedAt: &finished,
			Score:      &score,
			Status:     model.AttemptStatusSubmitted,
		},
		{
			ID:        uuid.New(),
			ExamID:    exam.ID,
			StudentID: inProgressID,
			StartedAt: started.Add(5 * time.Minute),
			Status:    model.AttemptStatusInProgress,
		},
	}
	students := map[uuid.UUID]model.User{
		submittedID:  {ID: submittedID, Name: "Asha Rao", Email: "asha@example.com", USN: &usn},
		inProgressID: {ID: inProgressID, Name: "Ben Thomas", Email: "ben@example.com"},
	}

	var buf bytes.Buffer
	if err := WriteExamReport(&buf, exam, attempts, students); err != nil {
		t.Fatalf("WriteExamReport: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	if rows[0][0] != "student_name" || rows[0][3] != "score" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	got := rows[1]
	want := []string{"Asha Rao", "asha@example.com", "1RV21CS042", "17", "20", "SUBMITTED",
		"2026-05-02T10:00:00Z", "2026-05-02T10:40:00Z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row 1 col %d: got %q, want %q", i, got[i], want[i])
		}
	}

	// In-progress attempts carry empty score and finish time.
	if rows[2][3] != "" || rows[2][7] != "" {
		t.Fatalf("in-progress row should have empty score/finished: %v", rows[2])
	}
	if rows[2][2] != "" {
		t.Fatalf("missing USN should render empty, got %q", rows[2][2])
	}
}

func TestReportFilename(t *testing.T) {
	exam := &model.Exam{ID: uuid.New()}
	name := ReportFilename(exam)
	if !strings.HasPrefix(name, "exam-results-") || !strings.HasSuffix(name, ".csv") {
		t.Fatalf("unexpected filename %q", name)
	}
}
