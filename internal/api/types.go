package api

// Employee work statuses, server-authoritative.
const (
	StatusOffline   = "offline"
	StatusAvailable = "available"
	StatusBusy      = "busy"
	StatusPaused    = "paused"
)

// QueueEntry is one applicant's server-side record.
type QueueEntry struct {
	ID                   string   `json:"id"`
	QueueNumber          int      `json:"queue_number"`
	FullName             string   `json:"full_name"`
	Phone                string   `json:"phone"`
	Programs             []string `json:"programs"`
	Status               string   `json:"status"` // waiting, in_progress, completed, cancelled
	Notes                string   `json:"notes,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at,omitempty"`
	AssignedEmployeeName string   `json:"assigned_employee_name"`
	ProcessingTime       int      `json:"processing_time,omitempty"` // seconds
	FormLanguage         string   `json:"form_language,omitempty"`
	EmployeeDesk         string   `json:"employee_desk,omitempty"`
	EmployeeStatus       string   `json:"employee_status,omitempty"` // display board only
}

// Employee is a staff record.
type Employee struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Desk     string `json:"desk,omitempty"`
	Status   string `json:"status"`
}

// JoinQueueRequest is the public intake form payload.
type JoinQueueRequest struct {
	FullName     string   `json:"full_name"`
	Phone        string   `json:"phone"`
	Programs     []string `json:"programs"`
	FormLanguage string   `json:"form_language,omitempty"`
}

// QueueUpdate patches a queue entry's status or notes.
type QueueUpdate struct {
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// QueueCount is the public waiting-count response.
type QueueCount struct {
	Count int `json:"count"`
}

// VideoSettings controls the display board's background video.
type VideoSettings struct {
	YouTubeURL string `json:"youtube_url"`
	IsEnabled  bool   `json:"is_enabled"`
}

// SpeechResult is the synthesized announcement attached to a call-next
// response when text-to-speech succeeded server-side.
type SpeechResult struct {
	Success     bool   `json:"success"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	Text        string `json:"text,omitempty"`
	Language    string `json:"language,omitempty"`
}

// CallNextResult is the call-next response. A 404 from the backend is a
// recognized empty-queue outcome and is normalized into
// {Success:false, Status:"empty_queue"} rather than surfaced as an error.
type CallNextResult struct {
	Success              bool          `json:"success"`
	Status               string        `json:"status,omitempty"` // "empty_queue" when nobody is waiting
	Message              string        `json:"message,omitempty"`
	ID                   string        `json:"id,omitempty"`
	QueueNumber          int           `json:"queue_number,omitempty"`
	FullName             string        `json:"full_name,omitempty"`
	Phone                string        `json:"phone,omitempty"`
	Programs             []string      `json:"programs,omitempty"`
	AssignedEmployeeName string        `json:"assigned_employee_name,omitempty"`
	EmployeeDesk         string        `json:"employee_desk,omitempty"`
	FormLanguage         string        `json:"form_language,omitempty"`
	Speech               *SpeechResult `json:"speech,omitempty"`
}

// Credentials for login; the backend takes form-encoded username/password.
type Credentials struct {
	Email    string
	Password string
}

// TokenResponse is the session issued by login.
type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        Employee `json:"user"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
	Desk     string `json:"desk,omitempty"`
}

// EmployeeUpdate patches a staff record.
type EmployeeUpdate struct {
	FullName string `json:"full_name,omitempty"`
	Desk     string `json:"desk,omitempty"`
	Status   string `json:"status,omitempty"`
}
