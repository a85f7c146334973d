package api

import (
	"context"
	"net/http"
	"net/url"
)

// QueueParams filters the staff queue listing. Zero values are omitted.
type QueueParams struct {
	Status   string
	FullName string
	Phone    string
}

func (p QueueParams) values() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.FullName != "" {
		q.Set("full_name", p.FullName)
	}
	if p.Phone != "" {
		q.Set("phone", p.Phone)
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// AdmissionQueue lists the entries assigned to the authenticated employee.
func (c *Client) AdmissionQueue(ctx context.Context, params QueueParams) ([]QueueEntry, error) {
	var entries []QueueEntry
	err := c.do(ctx, http.MethodGet, "/admission/queue", params.values(), nil, nil, &entries)
	return entries, err
}

// ProcessNext moves the next waiting applicant to in-progress without the
// voice announcement flow.
func (c *Client) ProcessNext(ctx context.Context) (QueueEntry, error) {
	var entry QueueEntry
	err := c.do(ctx, http.MethodPost, "/admission/next", nil, nil, nil, &entry)
	return entry, err
}

// UpdateEntry patches a queue entry (status, notes).
func (c *Client) UpdateEntry(ctx context.Context, id string, update QueueUpdate) (QueueEntry, error) {
	var entry QueueEntry
	err := c.do(ctx, http.MethodPut, "/admission/queue/"+id, nil, update, nil, &entry)
	return entry, err
}

// DeleteEntry removes a queue entry.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admission/queue/"+id, nil, nil, nil, nil)
}

// StartWork marks the employee available.
func (c *Client) StartWork(ctx context.Context) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/admission/start-work", nil, nil, nil, &emp)
	return emp, err
}

// PauseWork marks the employee paused.
func (c *Client) PauseWork(ctx context.Context) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/admission/pause-work", nil, nil, nil, &emp)
	return emp, err
}

// ResumeWork marks the employee available again after a pause.
func (c *Client) ResumeWork(ctx context.Context) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/admission/resume-work", nil, nil, nil, &emp)
	return emp, err
}

// CallNext calls the next waiting applicant. The backend answers 404 when
// nobody is waiting; that is a business outcome, not a transport error, so it
// resolves to {Success:false, Status:"empty_queue"} instead of an error.
func (c *Client) CallNext(ctx context.Context) (CallNextResult, error) {
	var result CallNextResult
	err := c.do(ctx, http.MethodPost, "/admission/call-next", nil, nil, nil, &result)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return CallNextResult{
				Success: false,
				Status:  "empty_queue",
				Message: "No applicants waiting in your queue.",
			}, nil
		}
		return CallNextResult{}, err
	}
	return result, nil
}

// CompleteCurrent finishes the applicant being served and returns the
// employee's resulting status (available, or paused when a pause was
// requested while busy).
func (c *Client) CompleteCurrent(ctx context.Context) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/admission/complete-current", nil, nil, nil, &emp)
	return emp, err
}

// FinishWork ends the employee's working day.
func (c *Client) FinishWork(ctx context.Context) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/admission/finish-work", nil, nil, nil, &emp)
	return emp, err
}

// EmployeeStatus returns the authenticated employee's current record.
func (c *Client) EmployeeStatus(ctx context.Context) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodGet, "/admission/status", nil, nil, nil, &emp)
	return emp, err
}
