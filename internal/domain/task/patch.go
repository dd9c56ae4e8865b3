package task

import (
	"slices"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/domain/shared"
)

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	Type        *Type
	DueDate     *time.Time
	Assignees   *[]string
	Attachments *[]Attachment
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// ForAssignee keeps only the fields a non-admin assignee may change
func (p Patch) ForAssignee() Patch {
	return Patch{Status: p.Status, Attachments: p.Attachments}
}

// ApplyAsAssignee applies the part of p a non-admin assignee may change.
// Assignees can drop or reorder attachments but not introduce new URLs;
// files reach a task through recorded uploads.
func (t *Task) ApplyAsAssignee(p Patch) (Change, error) {
	p = p.ForAssignee()
	if p.Attachments != nil {
		known := t.AttachmentURLs()
		for _, a := range *p.Attachments {
			if !slices.Contains(known, a.URL) {
				return Change{}, shared.Forbidden("Attachments can only be added by uploading a file")
			}
		}
	}
	return t.Apply(p)
}

// Change describes what an applied patch did
type Change struct {
	StatusFrom         Status
	StatusTo           Status
	PriorityFrom       Priority
	PriorityTo         Priority
	AddedAssignees     []string
	RemovedAttachments []string // URLs present before and absent after
}

// StatusChanged reports whether the status moved
func (c Change) StatusChanged() bool {
	return c.StatusFrom != c.StatusTo
}

// PriorityChanged reports whether the priority moved
func (c Change) PriorityChanged() bool {
	return c.PriorityFrom != c.PriorityTo
}

// BecameDone reports whether the update moved the task into Done
func (c Change) BecameDone() bool {
	return c.StatusChanged() && c.StatusTo == StatusDone
}

// Apply validates and applies p. On error the task is left unchanged.
func (t *Task) Apply(p Patch) (Change, error) {
	next := *t
	next.Assignees = slices.Clone(t.Assignees)
	next.Attachments = slices.Clone(t.Attachments)

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Change{}, shared.Invalid("Title is required")
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.DueDate != nil {
		due := *p.DueDate
		next.DueDate = &due
	}
	if p.Assignees != nil {
		next.Assignees = uniqueIDs(*p.Assignees)
	}
	if p.Attachments != nil {
		next.Attachments = slices.Clone(*p.Attachments)
	}
	if err := next.validateEnums(); err != nil {
		return Change{}, err
	}

	change := Change{
		StatusFrom:         t.Status,
		StatusTo:           next.Status,
		PriorityFrom:       t.Priority,
		PriorityTo:         next.Priority,
		RemovedAttachments: removedURLs(t.Attachments, next.Attachments),
	}
	for _, id := range next.Assignees {
		if !t.IsAssignee(id) {
			change.AddedAssignees = append(change.AddedAssignees, id)
		}
	}

	// an approval only stands while the task stays Done
	if next.IsApproved && next.Status != StatusDone {
		next.IsApproved = false
		next.ApprovedAt = nil
	}
	next.UpdatedAt = time.Now()
	*t = next
	return change, nil
}

func removedURLs(before, after []Attachment) []string {
	kept := make(map[string]struct{}, len(after))
	for _, a := range after {
		kept[a.URL] = struct{}{}
	}
	var removed []string
	for _, a := range before {
		if a.URL == "" {
			continue
		}
		if _, ok := kept[a.URL]; !ok && !slices.Contains(removed, a.URL) {
			removed = append(removed, a.URL)
		}
	}
	return removed
}
