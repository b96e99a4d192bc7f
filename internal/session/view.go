package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a view action is not allowed in the current mode.
var ErrInvalidTransition = errors.New("invalid view transition")

// Mode is the top-level view the session is showing.
type Mode int

const (
	// Listing shows all directories; no directory is open.
	Listing Mode = iota
	// Viewing shows the files of one directory.
	Viewing
	// EditingDirectory shows the create/edit directory form.
	EditingDirectory
	// EditingFile shows the create/rename file form.
	EditingFile
)

func (m Mode) String() string {
	switch m {
	case Listing:
		return "listing"
	case Viewing:
		return "viewing"
	case EditingDirectory:
		return "editing_directory"
	case EditingFile:
		return "editing_file"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DirectoryForm is the state of an open create/edit directory form.
// Token identifies this opening of the form; completions carrying another
// token are stale and must not touch the form.
type DirectoryForm struct {
	Token     uuid.UUID
	EditingID *int64 // nil = create
	Name      string
	ParentID  *int64
	Err       error // last failure, shown inline
}

// FileForm is the state of an open create/rename file form.
type FileForm struct {
	Token       uuid.UUID
	DirectoryID int64
	EditingID   *int64 // nil = create
	Name        string
	Err         error
}

// State is a snapshot of the view state machine. Views hold ids only;
// entities are re-read from the cache.
type State struct {
	Mode Mode
	// DirectoryID is the open directory in Viewing and EditingFile.
	DirectoryID int64
	// InspectedFileID is the file under inspection while Viewing.
	InspectedFileID *int64

	DirectoryForm *DirectoryForm
	FileForm      *FileForm
}

func (s State) clone() State {
	if s.InspectedFileID != nil {
		id := *s.InspectedFileID
		s.InspectedFileID = &id
	}
	if s.DirectoryForm != nil {
		f := *s.DirectoryForm
		f.EditingID = clonePtr(f.EditingID)
		f.ParentID = clonePtr(f.ParentID)
		s.DirectoryForm = &f
	}
	if s.FileForm != nil {
		f := *s.FileForm
		f.EditingID = clonePtr(f.EditingID)
		s.FileForm = &f
	}
	return s
}

func clonePtr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ViewState is the per-session selection state machine. Initial state is
// Listing; there is no terminal state.
type ViewState struct {
	mu      sync.Mutex
	current State
	// before is the non-form state a form returns to.
	before State
}

// NewViewState returns a machine in the Listing state.
func NewViewState() *ViewState {
	return &ViewState{}
}

// Snapshot returns a copy of the current state.
func (v *ViewState) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current.clone()
}

// Select opens a directory in the detail view.
func (v *ViewState) Select(id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.inForm() {
		return fmt.Errorf("%w: select directory while %s", ErrInvalidTransition, v.current.Mode)
	}
	v.current = State{Mode: Viewing, DirectoryID: id}
	return nil
}

// Back returns from the detail view to the list.
func (v *ViewState) Back() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current.Mode != Viewing {
		return fmt.Errorf("%w: back while %s", ErrInvalidTransition, v.current.Mode)
	}
	v.current = State{Mode: Listing}
	return nil
}

// InspectFile marks one file of the open directory as under inspection.
func (v *ViewState) InspectFile(fileID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current.Mode != Viewing {
		return fmt.Errorf("%w: inspect file while %s", ErrInvalidTransition, v.current.Mode)
	}
	v.current.InspectedFileID = &fileID
	return nil
}

// CloseInspector clears the inspected file.
func (v *ViewState) CloseInspector() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current.InspectedFileID = nil
}

// OpenDirectoryForm opens the directory form from any state and returns its token.
func (v *ViewState) OpenDirectoryForm(form DirectoryForm) uuid.UUID {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rememberBefore()
	form.Token = uuid.New()
	form.Err = nil
	v.current = State{Mode: EditingDirectory, DirectoryForm: &form}
	return form.Token
}

// OpenFileForm opens the file form for a persisted directory and returns its token.
func (v *ViewState) OpenFileForm(form FileForm) (uuid.UUID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if form.DirectoryID == 0 {
		return uuid.Nil, fmt.Errorf("%w: file form needs a saved directory", ErrInvalidTransition)
	}
	v.rememberBefore()
	form.Token = uuid.New()
	form.Err = nil
	v.current = State{Mode: EditingFile, DirectoryID: form.DirectoryID, FileForm: &form}
	return form.Token, nil
}

// SetDirectoryInput records what the user typed in the open directory form.
func (v *ViewState) SetDirectoryInput(name string, parentID *int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current.Mode != EditingDirectory {
		return fmt.Errorf("%w: no directory form open", ErrInvalidTransition)
	}
	v.current.DirectoryForm.Name = name
	v.current.DirectoryForm.ParentID = clonePtr(parentID)
	return nil
}

// SetFileInput records what the user typed in the open file form.
func (v *ViewState) SetFileInput(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current.Mode != EditingFile {
		return fmt.Errorf("%w: no file form open", ErrInvalidTransition)
	}
	v.current.FileForm.Name = name
	return nil
}

// Cancel closes an open form and returns to the state active before it opened.
// It does not abort a save already in flight.
func (v *ViewState) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.inForm() {
		v.current = v.before
	}
}

// directoryFormToken returns the token of the open directory form when it
// edits editingID (nil = create), or uuid.Nil.
func (v *ViewState) directoryFormToken(editingID *int64) uuid.UUID {
	v.mu.Lock()
	defer v.mu.Unlock()

	f := v.current.DirectoryForm
	if v.current.Mode != EditingDirectory || !sameID(f.EditingID, editingID) {
		return uuid.Nil
	}
	return f.Token
}

func (v *ViewState) fileFormToken(directoryID int64, editingID *int64) uuid.UUID {
	v.mu.Lock()
	defer v.mu.Unlock()

	f := v.current.FileForm
	if v.current.Mode != EditingFile || f.DirectoryID != directoryID || !sameID(f.EditingID, editingID) {
		return uuid.Nil
	}
	return f.Token
}

// originOf reports which view a form with token belongs to: the one it returns to.
func (v *ViewState) originOf(token uuid.UUID) ViewKind {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token == uuid.Nil || !v.holds(token) {
		return NoView
	}
	if v.before.Mode == Viewing {
		return DetailView
	}
	return ListView
}

// completeForm closes the form with token and returns to its prior state.
// A stale token (form closed or replaced since) changes nothing.
func (v *ViewState) completeForm(token uuid.UUID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.holds(token) {
		return false
	}
	v.current = v.before
	return true
}

// failForm attaches err to the form with token, keeping the user's input.
func (v *ViewState) failForm(token uuid.UUID, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.holds(token) {
		return false
	}
	switch v.current.Mode {
	case EditingDirectory:
		v.current.DirectoryForm.Err = err
	case EditingFile:
		v.current.FileForm.Err = err
	}
	return true
}

// forgetDirectory drops every reference to a deleted directory, falling back
// to Listing. A form that picked it as parent goes back to root level.
func (v *ViewState) forgetDirectory(id int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.before.Mode == Viewing && v.before.DirectoryID == id {
		v.before = State{Mode: Listing}
	}
	switch v.current.Mode {
	case Viewing, EditingFile:
		if v.current.DirectoryID == id {
			v.current = State{Mode: Listing}
		}
	case EditingDirectory:
		f := v.current.DirectoryForm
		if f.EditingID != nil && *f.EditingID == id {
			v.current = v.before
		} else if f.ParentID != nil && *f.ParentID == id {
			f.ParentID = nil
		}
	}
}

func (v *ViewState) holds(token uuid.UUID) bool {
	if token == uuid.Nil {
		return false
	}
	switch v.current.Mode {
	case EditingDirectory:
		return v.current.DirectoryForm.Token == token
	case EditingFile:
		return v.current.FileForm.Token == token
	}
	return false
}

func (v *ViewState) inForm() bool {
	return v.current.Mode == EditingDirectory || v.current.Mode == EditingFile
}

// rememberBefore saves the state a new form returns to. Opening a form over
// another form keeps the original return state.
func (v *ViewState) rememberBefore() {
	if !v.inForm() {
		v.before = v.current.clone()
		v.before.InspectedFileID = nil
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
