package change

import (
	"fmt"

	"github.com/google/uuid"
)

// PerPatchsetOperations groups the operations on a specific patchset
type PerPatchsetOperations struct {
	ops      *Operations
	changeID int
	number   int // 0 selects the current patchset
}

// Get retrieves the patchset. It fails with ErrNotFound if the change or
// the patchset does not exist
func (p *PerPatchsetOperations) Get() (TestPatchset, error) {
	p.ops.mu.Lock()
	defer p.ops.mu.Unlock()

	_, ps, err := p.ops.lookup(p.changeID, p.number)
	if err != nil {
		return TestPatchset{}, err
	}
	return ps.TestPatchset, nil
}

// Comments returns the comments on the patchset in creation order
func (p *PerPatchsetOperations) Comments() ([]TestComment, error) {
	p.ops.mu.Lock()
	defer p.ops.mu.Unlock()

	_, ps, err := p.ops.lookup(p.changeID, p.number)
	if err != nil {
		return nil, err
	}
	return append([]TestComment(nil), ps.comments...), nil
}

// NewComment starts the fluent chain to create a comment. Nothing is stored
// until Create is called:
//
//	uuid, err := ops.Change(id).CurrentPatchset().NewComment().
//	    OnLine(2).
//	    OfFile("file1").
//	    Create()
func (p *PerPatchsetOperations) NewComment() *CommentCreation {
	return &CommentCreation{
		patchset: p,
		file:     PatchsetLevelFile,
		message:  "A test comment",
		author:   "test-user",
	}
}

// CommentCreation builds a new comment
type CommentCreation struct {
	patchset   *PerPatchsetOperations
	file       string
	line       int
	message    string
	author     string
	unresolved bool
}

// OnLine attaches the comment to a line. Line 0 comments on the whole file
func (b *CommentCreation) OnLine(line int) *CommentCreation {
	b.line = line
	return b
}

// OfFile attaches the comment to a file
func (b *CommentCreation) OfFile(path string) *CommentCreation {
	b.file = path
	return b
}

// Message sets the comment text
func (b *CommentCreation) Message(message string) *CommentCreation {
	b.message = message
	return b
}

// Author sets the comment author
func (b *CommentCreation) Author(author string) *CommentCreation {
	b.author = author
	return b
}

// Unresolved marks the comment as needing action
func (b *CommentCreation) Unresolved(unresolved bool) *CommentCreation {
	b.unresolved = unresolved
	return b
}

// Create stores the comment and returns its UUID
func (b *CommentCreation) Create() (string, error) {
	if b.line < 0 {
		return "", fmt.Errorf("invalid line %d", b.line)
	}
	if b.file == "" {
		return "", fmt.Errorf("file is required")
	}
	if b.line > 0 && b.file == PatchsetLevelFile {
		return "", fmt.Errorf("patchset level comments cannot be on a line")
	}

	p := b.patchset
	p.ops.mu.Lock()
	defer p.ops.mu.Unlock()

	_, ps, err := p.ops.lookup(p.changeID, p.number)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	ps.comments = append(ps.comments, TestComment{
		UUID:       id,
		ChangeID:   ps.ChangeID,
		Patchset:   ps.Number,
		File:       b.file,
		Line:       b.line,
		Message:    b.message,
		Author:     b.author,
		Unresolved: b.unresolved,
		Created:    p.ops.now(),
	})
	return id, nil
}
