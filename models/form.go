package models

// FormData holds the two text fields of the debtor form.
type FormData struct {
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
}

// Field names as posted by the form.
const (
	FieldFullName    = "fullName"
	FieldCompanyName = "companyName"
)

// Submission is what gets handed off once a document upload succeeded.
type Submission struct {
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
	DocumentURL string `json:"documentUrl"`
}
