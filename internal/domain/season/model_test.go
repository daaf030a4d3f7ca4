package season

import (
	"errors"
	"testing"
)

func TestCurrent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seasons []Season
		wantID  int64
		wantErr error
	}{
		{
			name:    "no seasons",
			wantErr: ErrNoActiveSeason,
		},
		{
			name:    "inactive only",
			seasons: []Season{{ID: 1, Year: 2025}},
			wantErr: ErrNoActiveSeason,
		},
		{
			name: "highest active year wins",
			seasons: []Season{
				{ID: 9, Year: 2024, IsActive: true},
				{ID: 3, Year: 2025, IsActive: true},
				{ID: 10, Year: 2026, IsActive: false},
			},
			wantID: 3,
		},
		{
			name: "year tie resolved by highest id",
			seasons: []Season{
				{ID: 4, Year: 2025, IsActive: true},
				{ID: 7, Year: 2025, IsActive: true},
				{ID: 5, Year: 2025, IsActive: true},
			},
			wantID: 7,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Current(tc.seasons)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err == nil && got.ID != tc.wantID {
				t.Fatalf("season id = %d, want %d", got.ID, tc.wantID)
			}
		})
	}
}
