package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
)

var taskAssignedTmpl = template.Must(template.New("task_assigned").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>New Task Assigned</h2>
  <p>Hi {{.Greeting}},</p>
  <p>You have been assigned to a new task.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Title</strong></td><td>{{.Title}}</td></tr>
    <tr><td><strong>Priority</strong></td><td>{{.Priority}}</td></tr>
    <tr><td><strong>Due date</strong></td><td>{{.DueDate}}</td></tr>
  </table>
  {{if .Link}}<p><a href="{{.Link}}">Open your dashboard</a></p>{{end}}
</body>
</html>
`))

type taskAssignedData struct {
	Greeting string
	Title    string
	Priority string
	DueDate  string
	Link     string
}

// RenderTaskAssigned renders the assignment email. Every user-controlled
// value is escaped by html/template.
func RenderTaskAssigned(to *identity.User, t *task.Task, clientURL string) (*Message, error) {
	due := "No due date"
	if t.DueDate != nil {
		due = t.DueDate.Format("Jan 2, 2006")
	}
	var buf bytes.Buffer
	err := taskAssignedTmpl.Execute(&buf, taskAssignedData{
		Greeting: to.GreetingName(),
		Title:    t.Title,
		Priority: string(t.Priority),
		DueDate:  due,
		Link:     clientURL,
	})
	if err != nil {
		return nil, fmt.Errorf("render task assigned email: %w", err)
	}
	return &Message{
		To:      to.Email,
		Subject: "New Task Assigned: " + t.Title,
		HTML:    buf.String(),
	}, nil
}
