package announce

// Record is one "speak this audio to whoever is listening" event. At most
// one record is current per store; publishing a new one supersedes the
// previous. Queue number, employee name and desk are carried for display
// purposes only.
type Record struct {
	AudioID      string `json:"audioId"`
	AudioBase64  string `json:"audioBase64"`
	Text         string `json:"text"`
	Language     string `json:"language"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds
	QueueNumber  int    `json:"queueNumber,omitempty"`
	EmployeeName string `json:"employeeName,omitempty"`
	Desk         string `json:"desk,omitempty"`
}

// PlaybackStatus signals whether some announcement audio is currently
// playing, independent of the payload. Receiving surfaces use it to duck or
// restore background media volume without owning the record.
type PlaybackStatus struct {
	IsPlaying bool   `json:"isPlaying"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	AudioID   string `json:"audioId"`
}
