package middleware

// Message is the JSON envelope for errors returned by the API.
type Message struct {
	Status string `json:"status"`
	Body   string `json:"body"`
}
