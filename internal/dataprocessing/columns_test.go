package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventkpi/internal/errors"
	"eventkpi/pkg/contracts/domain"
)

func TestResolveDateColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
		wantErr bool
	}{
		{
			name:    "timezone qualified name wins over generic",
			columns: []string{"Date", "Email", "Last Registration Date (GMT)"},
			want:    "Last Registration Date (GMT)",
		},
		{
			name:    "generic fallback",
			columns: []string{"Title", "Timestamp"},
			want:    "Timestamp",
		},
		{
			name:    "registration date before created",
			columns: []string{"Created", "Registration Date"},
			want:    "Registration Date",
		},
		{
			name:    "header whitespace is ignored",
			columns: []string{"  Registration Date "},
			want:    "  Registration Date ",
		},
		{
			name:    "no candidate present",
			columns: []string{"Title", "Email", "signup"},
			wantErr: true,
		},
		{
			name:    "no fuzzy match on case",
			columns: []string{"registration date"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDateColumn(tt.columns, DateColumnCandidates)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrColumnNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCapabilities(t *testing.T) {
	caps := ResolveCapabilities([]string{
		"Date", "Email", "Title", "Gender", "My Gender is:", "Company Name",
	})

	assert.True(t, caps.Has(domain.FieldEmail))
	assert.Equal(t, "Email", caps.Column(domain.FieldEmail))
	assert.Equal(t, "My Gender is:", caps.Column(domain.FieldGender))
	assert.True(t, caps.Has(domain.FieldCompany))
	assert.False(t, caps.Has(domain.FieldState))
	assert.False(t, caps.Has(domain.FieldJobClassification))
	assert.Equal(t, []domain.Field{
		domain.FieldEmail, domain.FieldTitle, domain.FieldGender, domain.FieldCompany,
	}, caps.Present())
}
