package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageFromGranuleID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		granuleID string
		want      string
	}{
		{"CREC-2023-01-10-pt1-PgS123-4", "PgS123-4"},
		{"CREC-2023-01-10-pt1-PgS123", "PgS123"},
		{"CREC-2023-01-10-pt1-PgH77", "PgH77"},
		{"CREC-2023-01-10-pt1-PgS12-3-PgS99", "PgS12-3"},
		{"CREC-2023-01-10-pt1-PgE123", ""},
		{"CREC-2023-01-10-pt1", ""},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, PageFromGranuleID(tc.granuleID), "granule id %q", tc.granuleID)
	}
}
