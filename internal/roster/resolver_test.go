package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

func poolOf(emails ...string) []models.CandidateAssignment {
	pool := make([]models.CandidateAssignment, 0, len(emails))
	for i, email := range emails {
		pool = append(pool, models.CandidateAssignment{
			PersonID:  int64(i + 1),
			ProjectID: int64(100 + i),
			Email:     email,
		})
	}
	return pool
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		booker     string
		pool       []models.CandidateAssignment
		wantEmails []string
	}{
		{
			name:       "full name",
			booker:     "Jane Smith",
			pool:       poolOf("jane.smith@tpximpact.com", "john.doe@tpximpact.com"),
			wantEmails: []string{"jane.smith@tpximpact.com"},
		},
		{
			name:       "initial and surname",
			booker:     "J Smith",
			pool:       poolOf("jane.smith@tpximpact.com"),
			wantEmails: []string{"jane.smith@tpximpact.com"},
		},
		{
			name:   "case insensitive",
			booker: "JANE SMITH",
			pool:   poolOf("Jane.Smith@tpximpact.com"),
			wantEmails: []string{
				"Jane.Smith@tpximpact.com",
			},
		},
		{
			name:   "one row per concurrent assignment",
			booker: "jane smith",
			pool: append(poolOf("jane.smith@tpximpact.com"),
				models.CandidateAssignment{PersonID: 1, ProjectID: 200, Email: "jane.smith@tpximpact.com"}),
			wantEmails: []string{"jane.smith@tpximpact.com", "jane.smith@tpximpact.com"},
		},
		{
			name:       "no match",
			booker:     "Arthur Dent",
			pool:       poolOf("jane.smith@tpximpact.com"),
			wantEmails: nil,
		},
		{
			name:       "partial token mismatch",
			booker:     "Jane Smithson",
			pool:       poolOf("jane.smith@tpximpact.com"),
			wantEmails: nil,
		},
		{
			name:       "empty booker",
			booker:     "   ",
			pool:       poolOf("jane.smith@tpximpact.com"),
			wantEmails: nil,
		},
		{
			name:       "candidates without email are skipped",
			booker:     "Jane Smith",
			pool:       poolOf(""),
			wantEmails: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.booker, tt.pool)
			var emails []string
			for _, row := range got {
				emails = append(emails, row.Email)
			}
			assert.Equal(t, tt.wantEmails, emails)
		})
	}
}
