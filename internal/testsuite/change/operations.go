package change

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/link"
)

// ErrNotFound is returned when a requested change or patchset does not exist
var ErrNotFound = errors.New("not found")

// PatchsetLevelFile is the file of comments that are not attached to a file
const PatchsetLevelFile = "/PATCHSET_LEVEL"

// TestChange is a snapshot of a synthetic change
type TestChange struct {
	ID              int
	Subject         string
	Owner           string
	CurrentPatchset int
	Created         time.Time
}

// TestPatchset is a snapshot of a synthetic patchset
type TestPatchset struct {
	ChangeID int
	Number   int
	Uploader string
	Created  time.Time
}

// TestComment is a snapshot of a synthetic comment
type TestComment struct {
	UUID       string
	ChangeID   int
	Patchset   int
	File       string
	Line       int
	Message    string
	Author     string
	Unresolved bool
	Created    time.Time
}

type change struct {
	TestChange
	patchsets []*patchset
}

type patchset struct {
	TestPatchset
	comments []TestComment
}

// Operations creates and inspects synthetic changes for tests.
// It is safe for concurrent use
type Operations struct {
	mu      sync.Mutex
	nextID  int
	changes map[int]*change
	now     func() time.Time
}

// NewOperations returns an empty fixture store. Change ids start at 1
func NewOperations() *Operations {
	return &Operations{
		nextID:  1,
		changes: make(map[int]*change),
		now:     time.Now,
	}
}

// NewChange starts the fluent chain to create a change with one patchset
func (o *Operations) NewChange() *ChangeCreation {
	return &ChangeCreation{
		ops:     o,
		subject: "Test change",
		owner:   "test-user",
	}
}

// Change returns the operations on the change with the given id.
// The change does not need to exist until an operation is executed
func (o *Operations) Change(id int) *PerChangeOperations {
	return &PerChangeOperations{ops: o, id: id}
}

// lookup returns the patchset, or the current one when number is 0.
// Callers hold o.mu
func (o *Operations) lookup(changeID, number int) (*change, *patchset, error) {
	c, ok := o.changes[changeID]
	if !ok {
		return nil, nil, fmt.Errorf("change %d: %w", changeID, ErrNotFound)
	}
	if number == 0 {
		number = c.CurrentPatchset
	}
	if number < 1 || number > len(c.patchsets) {
		return nil, nil, fmt.Errorf("patchset %d of change %d: %w", number, changeID, ErrNotFound)
	}
	return c, c.patchsets[number-1], nil
}

// ChangeCreation builds a new change
type ChangeCreation struct {
	ops     *Operations
	subject string
	owner   string
}

// Subject sets the subject of the change
func (b *ChangeCreation) Subject(subject string) *ChangeCreation {
	b.subject = subject
	return b
}

// Owner sets the owner of the change and uploader of its first patchset
func (b *ChangeCreation) Owner(owner string) *ChangeCreation {
	b.owner = owner
	return b
}

// Create stores the change and returns its id
func (b *ChangeCreation) Create() (int, error) {
	o := b.ops
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++

	now := o.now()
	o.changes[id] = &change{
		TestChange: TestChange{
			ID:              id,
			Subject:         b.subject,
			Owner:           b.owner,
			CurrentPatchset: 1,
			Created:         now,
		},
		patchsets: []*patchset{{
			TestPatchset: TestPatchset{ChangeID: id, Number: 1, Uploader: b.owner, Created: now},
		}},
	}
	return id, nil
}

// PerChangeOperations groups the operations on a specific change
type PerChangeOperations struct {
	ops *Operations
	id  int
}

// Exists reports whether the change exists
func (c *PerChangeOperations) Exists() bool {
	c.ops.mu.Lock()
	defer c.ops.mu.Unlock()
	_, ok := c.ops.changes[c.id]
	return ok
}

// Get retrieves the change. It fails with ErrNotFound if the change does not exist
func (c *PerChangeOperations) Get() (TestChange, error) {
	c.ops.mu.Lock()
	defer c.ops.mu.Unlock()
	ch, ok := c.ops.changes[c.id]
	if !ok {
		return TestChange{}, fmt.Errorf("change %d: %w", c.id, ErrNotFound)
	}
	return ch.TestChange, nil
}

// Token returns the history token that opens the change
func (c *PerChangeOperations) Token() string {
	return link.ToChange(c.id)
}

// CurrentPatchset returns the operations on whichever patchset is current
// when an operation is executed
func (c *PerChangeOperations) CurrentPatchset() *PerPatchsetOperations {
	return &PerPatchsetOperations{ops: c.ops, changeID: c.id}
}

// Patchset returns the operations on patchset number n
func (c *PerChangeOperations) Patchset(n int) *PerPatchsetOperations {
	return &PerPatchsetOperations{ops: c.ops, changeID: c.id, number: n}
}

// NewPatchset starts the fluent chain to upload a new patchset
func (c *PerChangeOperations) NewPatchset() *PatchsetCreation {
	return &PatchsetCreation{ops: c.ops, changeID: c.id}
}

// PatchsetCreation builds a new patchset
type PatchsetCreation struct {
	ops      *Operations
	changeID int
	uploader string
}

// Uploader sets the uploader. It defaults to the change owner
func (b *PatchsetCreation) Uploader(uploader string) *PatchsetCreation {
	b.uploader = uploader
	return b
}

// Create appends the patchset, makes it current and returns its number
func (b *PatchsetCreation) Create() (int, error) {
	o := b.ops
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.changes[b.changeID]
	if !ok {
		return 0, fmt.Errorf("change %d: %w", b.changeID, ErrNotFound)
	}

	uploader := b.uploader
	if uploader == "" {
		uploader = c.Owner
	}

	number := len(c.patchsets) + 1
	c.patchsets = append(c.patchsets, &patchset{
		TestPatchset: TestPatchset{ChangeID: b.changeID, Number: number, Uploader: uploader, Created: o.now()},
	})
	c.CurrentPatchset = number
	return number, nil
}
