package api

import (
	"context"
	"net/http"
)

// CreateAdmissionStaff registers a new admission employee.
func (c *Client) CreateAdmissionStaff(ctx context.Context, req RegisterRequest) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/admin/create-admission", nil, req, nil, &emp)
	return emp, err
}

// Employees lists all staff records.
func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var emps []Employee
	err := c.do(ctx, http.MethodGet, "/admin/employees", nil, nil, nil, &emps)
	return emps, err
}

// UpdateEmployee patches a staff record.
func (c *Client) UpdateEmployee(ctx context.Context, id string, update EmployeeUpdate) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPut, "/admin/employees/"+id, nil, update, nil, &emp)
	return emp, err
}

// DeleteEmployee removes a staff record.
func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/employees/"+id, nil, nil, nil, nil)
}

// AllQueue lists every queue entry across employees.
func (c *Client) AllQueue(ctx context.Context, params QueueParams) ([]QueueEntry, error) {
	var entries []QueueEntry
	err := c.do(ctx, http.MethodGet, "/admin/queue", params.values(), nil, nil, &entries)
	return entries, err
}

// ExportQueueExcel downloads the queue as an Excel workbook (binary).
func (c *Client) ExportQueueExcel(ctx context.Context) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, "/admin/queue/export", nil, nil, nil)
}

// AdminVideoSettings returns the board video settings for editing.
func (c *Client) AdminVideoSettings(ctx context.Context) (VideoSettings, error) {
	var settings VideoSettings
	err := c.do(ctx, http.MethodGet, "/admin/video-settings", nil, nil, nil, &settings)
	return settings, err
}

// UpdateVideoSettings replaces the board video settings.
func (c *Client) UpdateVideoSettings(ctx context.Context, settings VideoSettings) (VideoSettings, error) {
	var updated VideoSettings
	err := c.do(ctx, http.MethodPut, "/admin/video-settings", nil, settings, nil, &updated)
	return updated, err
}
