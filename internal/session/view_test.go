package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewState_Transitions(t *testing.T) {
	v := NewViewState()
	assert.Equal(t, Listing, v.Snapshot().Mode)

	require.NoError(t, v.Select(3))
	st := v.Snapshot()
	assert.Equal(t, Viewing, st.Mode)
	assert.Equal(t, int64(3), st.DirectoryID)

	require.NoError(t, v.Select(4), "selecting another directory from the detail view")
	assert.Equal(t, int64(4), v.Snapshot().DirectoryID)

	require.NoError(t, v.Back())
	assert.Equal(t, Listing, v.Snapshot().Mode)

	err := v.Back()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestViewState_FormReturnsToOpener(t *testing.T) {
	tests := []struct {
		name  string
		setup func(v *ViewState)
		want  State
	}{
		{
			name:  "from listing",
			setup: func(v *ViewState) {},
			want:  State{Mode: Listing},
		},
		{
			name:  "from viewing",
			setup: func(v *ViewState) { _ = v.Select(2) },
			want:  State{Mode: Viewing, DirectoryID: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/cancel", func(t *testing.T) {
			v := NewViewState()
			tt.setup(v)
			v.OpenDirectoryForm(DirectoryForm{})
			v.Cancel()
			assert.Equal(t, tt.want, v.Snapshot())
		})
		t.Run(tt.name+"/complete", func(t *testing.T) {
			v := NewViewState()
			tt.setup(v)
			token := v.OpenDirectoryForm(DirectoryForm{})
			assert.True(t, v.completeForm(token))
			assert.Equal(t, tt.want, v.Snapshot())
		})
	}
}

func TestViewState_FormBlocksNavigation(t *testing.T) {
	v := NewViewState()
	v.OpenDirectoryForm(DirectoryForm{})

	assert.ErrorIs(t, v.Select(1), ErrInvalidTransition)
	assert.ErrorIs(t, v.Back(), ErrInvalidTransition)
	assert.ErrorIs(t, v.SetFileInput("x"), ErrInvalidTransition)
	require.NoError(t, v.SetDirectoryInput("Docs", nil))
}

func TestViewState_FileFormNeedsSavedDirectory(t *testing.T) {
	v := NewViewState()
	_, err := v.OpenFileForm(FileForm{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Listing, v.Snapshot().Mode)
}

func TestViewState_StaleToken(t *testing.T) {
	v := NewViewState()
	first := v.OpenDirectoryForm(DirectoryForm{Name: "old"})
	v.Cancel()
	second := v.OpenDirectoryForm(DirectoryForm{Name: "new"})
	require.NotEqual(t, first, second)

	assert.False(t, v.completeForm(first))
	assert.False(t, v.failForm(first, errors.New("late")))
	assert.False(t, v.completeForm(uuid.Nil))

	st := v.Snapshot()
	require.Equal(t, EditingDirectory, st.Mode)
	assert.Equal(t, "new", st.DirectoryForm.Name)
	assert.Nil(t, st.DirectoryForm.Err)
}

func TestViewState_FailKeepsInput(t *testing.T) {
	v := NewViewState()
	require.NoError(t, v.Select(1))
	token, err := v.OpenFileForm(FileForm{DirectoryID: 1})
	require.NoError(t, err)
	require.NoError(t, v.SetFileInput("notes.txt"))

	cause := errors.New("remote down")
	assert.True(t, v.failForm(token, cause))

	st := v.Snapshot()
	assert.Equal(t, EditingFile, st.Mode)
	assert.Equal(t, "notes.txt", st.FileForm.Name)
	assert.Equal(t, cause, st.FileForm.Err)
}

func TestViewState_InspectFile(t *testing.T) {
	v := NewViewState()
	assert.ErrorIs(t, v.InspectFile(10), ErrInvalidTransition)

	require.NoError(t, v.Select(1))
	require.NoError(t, v.InspectFile(10))
	assert.Equal(t, int64(10), *v.Snapshot().InspectedFileID)

	v.CloseInspector()
	assert.Nil(t, v.Snapshot().InspectedFileID)

	require.NoError(t, v.InspectFile(10))
	v.OpenDirectoryForm(DirectoryForm{})
	v.Cancel()
	assert.Nil(t, v.Snapshot().InspectedFileID, "forms drop the inspector")
}

func TestViewState_OriginOf(t *testing.T) {
	v := NewViewState()
	listToken := v.OpenDirectoryForm(DirectoryForm{})
	assert.Equal(t, ListView, v.originOf(listToken))
	v.Cancel()
	assert.Equal(t, NoView, v.originOf(listToken))

	require.NoError(t, v.Select(1))
	detailToken, err := v.OpenFileForm(FileForm{DirectoryID: 1})
	require.NoError(t, err)
	assert.Equal(t, DetailView, v.originOf(detailToken))
}

func TestViewState_ForgetDirectory(t *testing.T) {
	tests := []struct {
		name  string
		setup func(v *ViewState)
		want  Mode
	}{
		{name: "viewing it", setup: func(v *ViewState) { _ = v.Select(1) }, want: Listing},
		{name: "viewing another", setup: func(v *ViewState) { _ = v.Select(2) }, want: Viewing},
		{
			name: "editing its file",
			setup: func(v *ViewState) {
				_ = v.Select(1)
				_, _ = v.OpenFileForm(FileForm{DirectoryID: 1})
			},
			want: Listing,
		},
		{
			name: "editing it from its detail view",
			setup: func(v *ViewState) {
				_ = v.Select(1)
				id := int64(1)
				v.OpenDirectoryForm(DirectoryForm{EditingID: &id})
			},
			want: Listing,
		},
		{
			name: "creating a directory",
			setup: func(v *ViewState) {
				v.OpenDirectoryForm(DirectoryForm{})
			},
			want: EditingDirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewState()
			tt.setup(v)
			v.forgetDirectory(1)
			assert.Equal(t, tt.want, v.Snapshot().Mode)
		})
	}
}

func TestViewState_ForgetDirectoryClearsFormParent(t *testing.T) {
	v := NewViewState()
	editing, parent := int64(2), int64(1)
	v.OpenDirectoryForm(DirectoryForm{EditingID: &editing, Name: "Reports", ParentID: &parent})

	v.forgetDirectory(3)
	require.NotNil(t, v.Snapshot().DirectoryForm.ParentID)

	v.forgetDirectory(1)
	st := v.Snapshot()
	require.Equal(t, EditingDirectory, st.Mode)
	assert.Nil(t, st.DirectoryForm.ParentID)
	assert.Equal(t, "Reports", st.DirectoryForm.Name)
}

func TestViewState_SnapshotIsCopy(t *testing.T) {
	v := NewViewState()
	parent := int64(5)
	v.OpenDirectoryForm(DirectoryForm{ParentID: &parent})

	st := v.Snapshot()
	*st.DirectoryForm.ParentID = 99
	st.DirectoryForm.Name = "changed"

	again := v.Snapshot()
	assert.Equal(t, int64(5), *again.DirectoryForm.ParentID)
	assert.Empty(t, again.DirectoryForm.Name)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "listing", Listing.String())
	assert.Equal(t, "editing_file", EditingFile.String())
	assert.Equal(t, "mode(9)", Mode(9).String())
}
