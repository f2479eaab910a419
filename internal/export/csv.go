// Package export renders finalized exam results as tabular reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/rvclass/examroom-backend/internal/model"
)

// WriteExamReport writes one CSV row per attempt against the exam:
// student identity, score, status and timing. Rows follow the attempts'
// start order; in-progress attempts appear with an empty score.
func WriteExamReport(w io.Writer, exam *model.Exam, attempts []model.Attempt, students map[uuid.UUID]model.User) error {
	cw := csv.NewWriter(w)

	header := []string{"student_name", "student_email", "usn", "score", "total_marks", "status", "started_at", "finished_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, a := range attempts {
		student := students[a.StudentID]

		usn := ""
		if student.USN != nil {
			usn = *student.USN
		}
		score := ""
		if a.Score != nil {
			score = fmt.Sprintf("%d", *a.Score)
		}
		finished := ""
		if a.FinishedAt != nil {
			finished = a.FinishedAt.UTC().Format(time.RFC3339)
		}

		row := []string{
			student.Name,
			student.Email,
			usn,
			score,
			fmt.Sprintf("%d", exam.TotalMarks),
			string(a.Status),
			a.StartedAt.UTC().Format(time.RFC3339),
			finished,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReportFilename builds a stable download name for an exam report.
func ReportFilename(exam *model.Exam) string {
	return fmt.Sprintf("exam-results-%s.csv", exam.ID)
}
