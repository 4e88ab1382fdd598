package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseViewMode(t *testing.T) {
	for in, want := range map[string]ViewMode{
		"":           ViewFlat,
		"flat":       ViewFlat,
		"Department": ViewByDepartment,
		"grouped":    ViewByDepartment,
	} {
		got, err := ParseViewMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseViewMode("tree")
	require.Error(t, err)
}

func TestViewModeToggle(t *testing.T) {
	require.Equal(t, ViewByDepartment, ViewFlat.Toggle())
	require.Equal(t, ViewFlat, ViewByDepartment.Toggle())
	require.Equal(t, "department", ViewByDepartment.String())
}

func TestValidate(t *testing.T) {
	ok := NewAccount(
		&Calendar{ID: "a", Events: []*Event{{ID: "1"}, {ID: "2"}}},
		&Calendar{ID: "b", Events: []*Event{{ID: "1"}}},
	)
	require.NoError(t, ok.Validate())

	cases := map[string]*Account{
		"duplicate calendar": NewAccount(&Calendar{ID: "a"}, &Calendar{ID: "a"}),
		"duplicate event":    NewAccount(&Calendar{ID: "a", Events: []*Event{{ID: "1"}, {ID: "1"}}}),
		"empty calendar id":  NewAccount(&Calendar{}),
		"sentinel id":        NewAccount(&Calendar{ID: FilterAll}),
		"stale filter":       {Calendars: []*Calendar{{ID: "a"}}, FilterID: "b"},
	}
	for name, a := range cases {
		require.Error(t, a.Validate(), name)
	}
}

func TestCalendarLabel(t *testing.T) {
	require.Equal(t, "id", (&Calendar{ID: "id"}).Label())
	require.Equal(t, "Work", (&Calendar{ID: "id", Name: "Work"}).Label())
}
