// Package types provides type definitions for structured data used throughout the resume-writer service.
package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SectionKind identifies which resume section a request targets.
type SectionKind string

// Supported section kinds.
const (
	KindSummary       SectionKind = "summary"
	KindEducation     SectionKind = "education"
	KindExperience    SectionKind = "experience"
	KindProject       SectionKind = "project"
	KindCertification SectionKind = "certification"
	KindPublication   SectionKind = "publication"
)

// AllSectionKinds lists every kind in route order.
func AllSectionKinds() []SectionKind {
	return []SectionKind{
		KindSummary,
		KindEducation,
		KindExperience,
		KindProject,
		KindCertification,
		KindPublication,
	}
}

// ParseSectionKind converts a string into a SectionKind.
func ParseSectionKind(s string) (SectionKind, error) {
	for _, k := range AllSectionKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown section kind: %q", s)
}

// SectionInput is implemented by every per-section request body.
type SectionInput interface {
	Kind() SectionKind
	TargetJob() string
}

// NewSectionInput returns an empty input record for the given kind, ready for JSON decoding.
func NewSectionInput(kind SectionKind) (SectionInput, error) {
	switch kind {
	case KindSummary:
		return &SummaryInput{}, nil
	case KindEducation:
		return &EducationInput{}, nil
	case KindExperience:
		return &ExperienceInput{}, nil
	case KindProject:
		return &ProjectInput{}, nil
	case KindCertification:
		return &CertificationInput{}, nil
	case KindPublication:
		return &PublicationInput{}, nil
	default:
		return nil, fmt.Errorf("unknown section kind: %q", kind)
	}
}

// SummaryInput is the request body for a professional summary.
type SummaryInput struct {
	JobDescription string   `json:"jobDescription" validate:"required"`
	TargetPosition string   `json:"targetPosition" validate:"required"`
	TargetCompany  string   `json:"targetCompany" validate:"required"`
	FullName       string   `json:"fullName,omitempty"`
	RawSummary     string   `json:"rawSummary,omitempty"`
	RawDescription []string `json:"rawDescription,omitempty"`
}

// EducationInput is the request body for an education entry.
type EducationInput struct {
	Institution    string   `json:"institution" validate:"required"`
	Degree         string   `json:"degree" validate:"required"`
	FieldOfStudy   string   `json:"fieldOfStudy" validate:"required"`
	Location       string   `json:"location,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	Current        bool     `json:"current,omitempty"`
	GPA            string   `json:"gpa,omitempty"`
	JobDescription string   `json:"jobDescription" validate:"required"`
	RawDescription []string `json:"rawDescription,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
}

// ExperienceInput is the request body for a work experience entry.
type ExperienceInput struct {
	Company        string   `json:"company" validate:"required"`
	Position       string   `json:"position" validate:"required"`
	Location       string   `json:"location,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	Current        bool     `json:"current,omitempty"`
	Technologies   []string `json:"technologies,omitempty"`
	JobDescription string   `json:"jobDescription" validate:"required"`
	RawDescription []string `json:"rawDescription,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
}

// ProjectInput is the request body for a project entry.
type ProjectInput struct {
	ProjectName  string `json:"projectName" validate:"required"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
	URL          string `json:"url,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Ongoing      bool   `json:"ongoing,omitempty"`
	// Achievements are impact metrics, e.g. "reduced load times by 30%".
	Achievements   []string `json:"achievements,omitempty"`
	JobDescription string   `json:"jobDescription" validate:"required"`
	RawDescription []string `json:"rawDescription,omitempty"`
	Technologies   []string `json:"technologies,omitempty"`
}

// CertificationInput is the request body for a certification entry.
type CertificationInput struct {
	CertificationName string `json:"certificationName" validate:"required"`
	Issuer            string `json:"issuer,omitempty"`
	IssueDate         string `json:"issueDate,omitempty"`
	ExpirationDate    string `json:"expirationDate,omitempty"`
	CredentialURL     string `json:"credentialUrl,omitempty"`
	JobDescription    string `json:"jobDescription" validate:"required"`
	RawDescription    string `json:"rawDescription,omitempty"`
}

// PublicationInput is the request body for a publication entry.
type PublicationInput struct {
	Title           string   `json:"title" validate:"required"`
	Publisher       string   `json:"publisher" validate:"required"`
	PublicationDate string   `json:"publicationDate,omitempty"`
	Authors         []string `json:"authors,omitempty"`
	URL             string   `json:"url,omitempty"`
	JobDescription  string   `json:"jobDescription" validate:"required"`
	RawDescription  string   `json:"rawDescription,omitempty"`
}

func (*SummaryInput) Kind() SectionKind       { return KindSummary }
func (*EducationInput) Kind() SectionKind     { return KindEducation }
func (*ExperienceInput) Kind() SectionKind    { return KindExperience }
func (*ProjectInput) Kind() SectionKind       { return KindProject }
func (*CertificationInput) Kind() SectionKind { return KindCertification }
func (*PublicationInput) Kind() SectionKind   { return KindPublication }

func (in *SummaryInput) TargetJob() string       { return in.JobDescription }
func (in *EducationInput) TargetJob() string     { return in.JobDescription }
func (in *ExperienceInput) TargetJob() string    { return in.JobDescription }
func (in *ProjectInput) TargetJob() string       { return in.JobDescription }
func (in *CertificationInput) TargetJob() string { return in.JobDescription }
func (in *PublicationInput) TargetJob() string   { return in.JobDescription }

var sectionValidator = validator.New()

// ValidateSection checks the required fields of a section input.
func ValidateSection(in SectionInput) error {
	if in == nil {
		return fmt.Errorf("section input is nil")
	}
	return sectionValidator.Struct(in)
}
