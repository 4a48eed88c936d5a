package models

// Message is a direct message between a client and a professional
type Message struct {
	ID        int    `json:"id"`
	Sender    int    `json:"sender"`
	Recipient int    `json:"recipient"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

// Notification is a server-generated notice for the current user
type Notification struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"is_read"`
}
