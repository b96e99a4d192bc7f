package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/session"
)

const helpText = `commands:
  ls                          list all directories
  tree                        show directories nested under their parents
  reload                      fetch the directory list again
  open <id>                   show the files of a directory
  refresh                     fetch the open directory's files again
  back                        return to the directory list
  mkdir [-p <parentId>] <name>
                              create a directory
  edit <id> [-p <parentId>|-p root] [name]
                              rename and/or move a directory
  rm <id>                     delete a directory
  touch <name>                create a file in the open directory
  rename <fileId> <name>      rename a file in the open directory
  cat <fileId>                show one file of the open directory
  help                        show this text
  quit                        leave the shell`

// shell is a line-oriented front end over one session. The directory list
// and the open directory are its two views; bridge events mark them stale and
// the shell redraws a stale view after the command that touched it.
type shell struct {
	s   *session.Session
	in  *bufio.Scanner
	out io.Writer

	mu    sync.Mutex
	stale map[session.ViewKind]bool
}

func newShell(s *session.Session, in io.Reader, out io.Writer) *shell {
	sh := &shell{
		s:     s,
		in:    bufio.NewScanner(in),
		out:   out,
		stale: make(map[session.ViewKind]bool),
	}
	for _, view := range []session.ViewKind{session.ListView, session.DetailView} {
		s.Bridge().Subscribe(view, func(session.Event) { sh.markStale(view) })
	}
	return sh
}

func (sh *shell) markStale(view session.ViewKind) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.stale[view] = true
}

func (sh *shell) takeStale(view session.ViewKind) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	was := sh.stale[view]
	delete(sh.stale, view)
	return was
}

func (sh *shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(sh.out, format, args...)
}

// run reads commands until EOF, "quit" or ctx ends.
func (sh *shell) run(ctx context.Context) error {
	sh.printf("loading directories...\n")
	if err := sh.s.Load(ctx); err != nil {
		sh.printf("error: %v (type 'reload' to retry)\n", err)
	}
	sh.redraw()

	for {
		sh.printf("%s> ", sh.prompt())
		if !sh.in.Scan() {
			sh.printf("\n")
			return sh.in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(sh.in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := sh.exec(ctx, fields[0], fields[1:]); err != nil {
			sh.printf("error: %s\n", describe(err))
		}
		sh.redraw()
	}
}

func (sh *shell) prompt() string {
	st := sh.s.State()
	if st.Mode == session.Viewing {
		return "/" + sh.s.Cache().Path(st.DirectoryID)
	}
	return "/"
}

// redraw prints whichever view went stale.
func (sh *shell) redraw() {
	switch sh.s.State().Mode {
	case session.Listing:
		if sh.takeStale(session.ListView) {
			sh.printList()
		}
	case session.Viewing:
		if sh.takeStale(session.DetailView) {
			sh.printDetail()
		}
	}
}

func (sh *shell) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		sh.printf("%s\n", helpText)
		return nil
	case "ls":
		sh.printList()
		return nil
	case "tree":
		sh.printTree()
		return nil
	case "reload":
		return sh.s.Load(ctx)
	case "open":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		err = sh.s.OpenDirectory(ctx, id)
		sh.markStale(session.DetailView)
		return err
	case "refresh":
		st := sh.s.State()
		if st.Mode != session.Viewing {
			return errors.New("no directory is open")
		}
		return sh.s.RefreshFiles(ctx, st.DirectoryID)
	case "back":
		err := sh.s.Back()
		sh.markStale(session.ListView)
		return err
	case "mkdir":
		return sh.mkdir(ctx, args)
	case "edit":
		return sh.edit(ctx, args)
	case "rm":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		if err := sh.s.DeleteDirectory(ctx, id); err != nil {
			return err
		}
		sh.markStale(session.ListView)
		sh.printf("deleted directory %d\n", id)
		return nil
	case "touch":
		return sh.touch(ctx, args)
	case "rename":
		return sh.rename(ctx, args)
	case "cat":
		return sh.cat(args)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (sh *shell) mkdir(ctx context.Context, args []string) error {
	parentID, _, rest, err := parentFlag(args)
	if err != nil {
		return err
	}

	sh.s.OpenNewDirectoryForm()
	if err := sh.s.SetDirectoryInput(strings.Join(rest, " "), parentID); err != nil {
		err = sh.withAllowedParents(err)
		sh.s.Cancel()
		return err
	}
	return sh.submitDirectory(ctx)
}

func (sh *shell) edit(ctx context.Context, args []string) error {
	id, err := argID(args, 0)
	if err != nil {
		return err
	}
	parentID, parentSet, rest, err := parentFlag(args[1:])
	if err != nil {
		return err
	}

	if _, err := sh.s.OpenEditDirectoryForm(id); err != nil {
		return err
	}
	form := sh.s.State().DirectoryForm
	name := form.Name
	if len(rest) > 0 {
		name = strings.Join(rest, " ")
	}
	if !parentSet {
		parentID = form.ParentID
	}

	if err := sh.s.SetDirectoryInput(name, parentID); err != nil {
		err = sh.withAllowedParents(err)
		sh.s.Cancel()
		return err
	}
	return sh.submitDirectory(ctx)
}

// withAllowedParents adds the open form's parent candidates to a refused parent.
func (sh *shell) withAllowedParents(err error) error {
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "parentId" {
		return err
	}
	allowed := []string{"root"}
	for _, d := range sh.s.ParentCandidates() {
		allowed = append(allowed, strconv.FormatInt(d.ID, 10))
	}
	return &domain.ValidationError{
		Field:   vErr.Field,
		Message: fmt.Sprintf("%s (allowed: %s)", vErr.Message, strings.Join(allowed, ", ")),
	}
}

func (sh *shell) submitDirectory(ctx context.Context) error {
	dir, err := sh.s.SubmitDirectoryForm(ctx)
	if err != nil {
		// The form keeps the input; a line shell has nowhere to show it.
		sh.s.Cancel()
		return err
	}
	sh.markStale(session.ListView)
	sh.printf("saved directory %d %q\n", dir.ID, dir.Name)
	return nil
}

func (sh *shell) touch(ctx context.Context, args []string) error {
	st := sh.s.State()
	if st.Mode != session.Viewing {
		return errors.New("open a directory first")
	}
	if _, err := sh.s.OpenNewFileForm(st.DirectoryID); err != nil {
		return err
	}
	if err := sh.s.SetFileInput(strings.Join(args, " ")); err != nil {
		sh.s.Cancel()
		return err
	}
	return sh.submitFile(ctx)
}

func (sh *shell) rename(ctx context.Context, args []string) error {
	st := sh.s.State()
	if st.Mode != session.Viewing {
		return errors.New("open a directory first")
	}
	fileID, err := argID(args, 0)
	if err != nil {
		return err
	}
	if _, err := sh.s.OpenRenameFileForm(st.DirectoryID, fileID); err != nil {
		return err
	}
	if err := sh.s.SetFileInput(strings.Join(args[1:], " ")); err != nil {
		sh.s.Cancel()
		return err
	}
	return sh.submitFile(ctx)
}

func (sh *shell) submitFile(ctx context.Context) error {
	f, err := sh.s.SubmitFileForm(ctx)
	if err != nil {
		sh.s.Cancel()
		return err
	}
	sh.markStale(session.DetailView)
	sh.printf("saved file %d %q\n", f.ID, f.Name)
	return nil
}

func (sh *shell) cat(args []string) error {
	fileID, err := argID(args, 0)
	if err != nil {
		return err
	}
	if err := sh.s.InspectFile(fileID); err != nil {
		return err
	}
	defer sh.s.CloseInspector()

	f, ok := sh.s.InspectedFile()
	if !ok {
		return errors.New("file is no longer loaded")
	}
	sh.printf("id:        %d\nname:      %s\ndirectory: %s (%d)\n", f.ID, f.Name, sh.s.Cache().Path(f.Directory.ID), f.Directory.ID)
	return nil
}

func (sh *shell) printList() {
	if sh.s.Loading() {
		sh.printf("loading...\n")
		return
	}
	dirs := sh.s.Directories()
	if len(dirs) == 0 {
		sh.printf("no directories\n")
		return
	}
	for _, d := range dirs {
		sh.printf("%6d  /%s\n", d.ID, sh.s.Cache().Path(d.ID))
	}
}

// printTree prints every directory under its parent. Directories whose
// parent is not cached are shown at the top level.
func (sh *shell) printTree() {
	if sh.s.Loading() {
		sh.printf("loading...\n")
		return
	}
	cache := sh.s.Cache()
	seen := make(map[int64]bool)
	var walk func(d models.Directory, depth int)
	walk = func(d models.Directory, depth int) {
		if seen[d.ID] {
			return
		}
		seen[d.ID] = true
		sh.printf("%6d  %s%s/\n", d.ID, strings.Repeat("  ", depth), d.Name)
		for _, child := range cache.Children(&d.ID) {
			walk(child, depth+1)
		}
	}
	for _, d := range sh.s.Directories() {
		if cache.ResolveParent(d.ParentID) == nil {
			walk(d, 0)
		}
	}
	if len(seen) == 0 {
		sh.printf("no directories\n")
	}
}

func (sh *shell) printDetail() {
	dir, ok := sh.s.CurrentDirectory()
	if !ok {
		return
	}
	sh.printf("/%s\n", sh.s.Cache().Path(dir.ID))
	if !dir.FilesLoaded() {
		sh.printf("  files not loaded (try 'refresh')\n")
		return
	}
	if len(dir.Files) == 0 {
		sh.printf("  no files\n")
		return
	}
	for _, f := range dir.Files {
		sh.printf("%6d  %s\n", f.ID, f.Name)
	}
}

func argID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[i])
	}
	return id, nil
}

// parentFlag strips a leading "-p <id>" or "-p root". set reports whether the
// flag was present.
func parentFlag(args []string) (parentID *int64, set bool, rest []string, err error) {
	if len(args) == 0 || args[0] != "-p" {
		return nil, false, args, nil
	}
	if len(args) < 2 {
		return nil, false, nil, errors.New("-p needs a directory id or 'root'")
	}
	if args[1] == "root" {
		return nil, true, args[2:], nil
	}
	id, err := argID(args, 1)
	if err != nil {
		return nil, false, nil, err
	}
	return &id, true, args[2:], nil
}

// describe renders err for the terminal, naming the offending field of a
// validation failure.
func describe(err error) string {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) && vErr.Field != "" {
		return fmt.Sprintf("%s: %s", fieldLabel(vErr.Field), vErr.Message)
	}
	return err.Error()
}

func fieldLabel(field string) string {
	switch field {
	case "nome":
		return "name"
	case "parentId":
		return "parent"
	case "directoryId":
		return "directory"
	default:
		return field
	}
}
