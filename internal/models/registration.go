// internal/models/registration.go
package models

// PastoralProfile carries the optional ministry background a pastor
// submits with a registration application.
type PastoralProfile struct {
	Denomination             string `json:"denomination,omitempty"`
	YearsInMinistry          int    `json:"yearsInMinistry"`
	CurrentChurchName        string `json:"currentChurchName,omitempty"`
	OrdinationCertificateURL string `json:"ordinationCertificateUrl,omitempty"`
	ReferenceLetterURL       string `json:"referenceLetterUrl,omitempty"`
}

// RegistrationApplication is a pastor's sign-up request. It is consumed
// once per assessment and carries no persisted identity.
type RegistrationApplication struct {
	Email      string           `json:"email"`
	FirstName  string           `json:"firstName"`
	LastName   string           `json:"lastName"`
	PastorInfo *PastoralProfile `json:"pastorInfo,omitempty"`
}

// RequestMetadata is the transport-level context captured with a church
// registration, used for automation detection.
type RequestMetadata struct {
	RequesterIP string `json:"requesterIp,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// ChurchRegistrationInput is a new church registration as submitted by
// an approved pastor.
type ChurchRegistrationInput struct {
	ChurchName          string          `json:"churchName"`
	ContactEmail        string          `json:"contactEmail"`
	Denomination        string          `json:"denomination,omitempty"`
	LegalRepresentative string          `json:"legalRepresentative,omitempty"`
	WebsiteURL          string          `json:"websiteUrl,omitempty"`
	Metadata            RequestMetadata `json:"metadata"`
}
