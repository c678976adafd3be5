package wizard

import "strings"

// Controller tracks which stage is showing and which employee the session
// is editing. It never talks to the server.
type Controller struct {
	stage      Stage
	employeeID string
	closed     bool
	done       bool
}

// NewController starts at the first stage. An empty id means a new employee
// that does not exist until personal information is saved.
func NewController(employeeID string) *Controller {
	return &Controller{
		stage:      StagePersonalInfo,
		employeeID: strings.TrimSpace(employeeID),
	}
}

func (c *Controller) Stage() Stage { return c.stage }

func (c *Controller) EmployeeID() string { return c.employeeID }

// Closed reports whether the user dismissed the session.
func (c *Controller) Closed() bool { return c.closed }

// Done reports whether the last stage saved successfully.
func (c *Controller) Done() bool { return c.done }

// Editing reports whether the session started from or has created a record.
func (c *Controller) Editing() bool { return c.employeeID != "" }

// Advance moves to the next stage. It does nothing on the last stage or
// after the session ended.
func (c *Controller) Advance() Stage {
	if c.closed || c.done {
		return c.stage
	}
	c.stage = c.stage.Next()
	return c.stage
}

// Back moves to the previous stage. It does nothing on the first stage.
func (c *Controller) Back() Stage {
	if c.closed || c.done {
		return c.stage
	}
	c.stage = c.stage.Prev()
	return c.stage
}

// SetEmployeeID records the id once the backend has assigned one. Empty
// ids are ignored so the id is never cleared before Close.
func (c *Controller) SetEmployeeID(id string) {
	if id = strings.TrimSpace(id); id != "" && !c.closed {
		c.employeeID = id
	}
}

// StepSucceeded records id and moves on. On the last stage it marks the
// session done and returns true so the caller can reload the employee list.
func (c *Controller) StepSucceeded(id string) bool {
	if c.closed || c.done {
		return c.done
	}
	c.SetEmployeeID(id)
	if c.stage.IsLast() {
		c.done = true
		return true
	}
	c.stage = c.stage.Next()
	return false
}

// Close resets the stage and id and ends the session.
func (c *Controller) Close() {
	c.stage = StagePersonalInfo
	c.employeeID = ""
	c.closed = true
}
