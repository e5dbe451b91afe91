// Package txn applies mutations to a diagram file all-or-nothing: every
// step runs against a working copy, the result is validated, and the
// file on disk is replaced atomically only when everything passed.
package txn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/validate"
	"ilo/internal/yamlio"
)

// State tracks where a transaction is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateApplying
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ValidationError carries the findings that blocked a commit.
type ValidationError struct {
	Bag *diag.Bag
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document failed validation: %d finding(s)", e.Bag.Len())
}

// AsValidationError unwraps a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Tx is one transaction over a diagram file. The file itself is not
// touched until Commit succeeds.
type Tx struct {
	path    string
	mode    validate.Mode
	profile yamlio.FormatProfile
	before  string
	work    *ilodoc.Document
	state   State
	fileFi  os.FileMode
}

// Begin reads the diagram file and opens a transaction validating in
// the given mode on commit.
func Begin(path string, mode validate.Mode) (*Tx, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := yamlio.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	perm := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	return &Tx{
		path:    path,
		mode:    mode,
		profile: yamlio.DetectFormatProfile(string(raw)),
		before:  string(raw),
		work:    doc,
		state:   StateIdle,
		fileFi:  perm,
	}, nil
}

// Path returns the file the transaction targets.
func (t *Tx) Path() string { return t.path }

// State returns the transaction state.
func (t *Tx) State() State { return t.state }

// Document exposes the working copy for read-only inspection between
// steps. Mutating it outside Do bypasses the state checks.
func (t *Tx) Document() *ilodoc.Document { return t.work }

// Do runs one mutation step against the working copy. A failing step
// aborts the transaction; the document on disk is untouched either way.
func (t *Tx) Do(step func(doc *ilodoc.Document) error) error {
	if t.state != StateIdle && t.state != StateApplying {
		return fmt.Errorf("transaction is %s, no further steps accepted", t.state)
	}
	t.state = StateApplying
	if err := step(t.work); err != nil {
		t.state = StateAborted
		return err
	}
	return nil
}

// Result describes a finished transaction.
type Result struct {
	Before  string
	After   string
	Changed bool
	// Warnings from commit validation; errors abort instead.
	Warnings *diag.Bag
}

// render validates the working copy and produces the output text.
func (t *Tx) render() (Result, error) {
	bag := validate.Document(t.work, t.mode)
	if bag.HasErrors() {
		t.state = StateAborted
		return Result{}, &ValidationError{Bag: bag}
	}
	after, err := yamlio.Dump(t.work, t.profile)
	if err != nil {
		t.state = StateAborted
		return Result{}, err
	}
	return Result{
		Before:   t.before,
		After:    after,
		Changed:  after != t.before,
		Warnings: bag,
	}, nil
}

// DryRun validates and renders the result without writing the file.
// The transaction ends aborted so it cannot be committed afterwards.
func (t *Tx) DryRun() (Result, error) {
	if t.state == StateCommitted || t.state == StateAborted {
		return Result{}, fmt.Errorf("transaction is %s", t.state)
	}
	res, err := t.render()
	if err != nil {
		return Result{}, err
	}
	t.state = StateAborted
	return res, nil
}

// Commit validates the working copy and atomically replaces the file.
// An unchanged document commits without rewriting the file.
func (t *Tx) Commit() (Result, error) {
	if t.state == StateCommitted || t.state == StateAborted {
		return Result{}, fmt.Errorf("transaction is %s", t.state)
	}
	res, err := t.render()
	if err != nil {
		return Result{}, err
	}
	if !res.Changed {
		t.state = StateCommitted
		return res, nil
	}
	if err := replaceFile(t.path, []byte(res.After), t.fileFi); err != nil {
		t.state = StateAborted
		return Result{}, err
	}
	t.state = StateCommitted
	return res, nil
}

// replaceFile writes content to a temp file in the target directory and
// renames it over the original, so readers never see a partial write.
func replaceFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".ilo-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
