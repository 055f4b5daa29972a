package models

import "portfolio/internal/content"

const (
	CertificationStatusActive = "Active"
	CertificationGroupOther   = "other"
)

type Certification struct {
	content.Meta
	content.Media
	Name            string  `json:"name" validate:"required"`
	Organization    *string `json:"organization"`
	IssueDate       *string `json:"issueDate"`
	ExpiryDate      *string `json:"expiryDate"`
	CredentialID    *string `json:"credentialId"`
	VerificationURL *string `json:"verificationUrl"`
	Category        *string `json:"category"`
	Status          string  `json:"status"`
	Group           string  `json:"group"`
}

func (c *Certification) Normalize() {
	c.Name = trim(c.Name)
	c.Organization = content.TrimToNil(c.Organization)
	c.IssueDate = content.TrimToNil(c.IssueDate)
	c.ExpiryDate = content.TrimToNil(c.ExpiryDate)
	c.CredentialID = content.TrimToNil(c.CredentialID)
	c.VerificationURL = content.TrimToNil(c.VerificationURL)
	c.Category = content.TrimToNil(c.Category)
	c.Image = content.TrimToNil(c.Image)
	c.Status = content.Or(trim(c.Status), CertificationStatusActive)
	c.Group = content.Or(trim(c.Group), CertificationGroupOther)
}

func (c *Certification) Validate() error {
	return content.Check(c)
}
