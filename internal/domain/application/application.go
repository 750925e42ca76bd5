package application

import (
	"context"
	"time"
)

const (
	StatusNew      = "New"
	StatusApproved = "Approved"
)

// Document is one stored attachment. Data carries the full data-URI string;
// Type is derived from it on read and is never persisted.
type Document struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Type string `json:"type,omitempty"`
}

// Documents holds the fixed attachment slots. Optional slots are omitted from
// JSON output entirely when absent.
type Documents struct {
	SSCCertificate        Document  `json:"sscCertificate"`
	HSCCertificate        Document  `json:"hscCertificate"`
	GraduationCertificate Document  `json:"graduationCertificate"`
	PGCertificate         *Document `json:"pgCertificate,omitempty"`
	RelievingLetter       *Document `json:"relievingLetter,omitempty"`
	OfferLetter           *Document `json:"offerLetter,omitempty"`
}

type Application struct {
	RefNo         string    `json:"refNo"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Gender        string    `json:"gender"`
	GuardianName  string    `json:"guardianName"`
	GuardianPhone string    `json:"guardianPhone"`
	JobType       string    `json:"jobType"`
	Location      string    `json:"location"`
	Status        string    `json:"status"`
	HasWorkExp    bool      `json:"hasWorkExp"`
	Company       *string   `json:"company"`
	YearsExp      *float64  `json:"yearsExp"`
	WorkLocation  *string   `json:"workLocation"`
	HasPG         bool      `json:"hasPG"`
	Documents     Documents `json:"documents"`
	CreatedAt     time.Time `json:"-"`
}

// OfferLetterFile is the downloadable form of an attached offer letter.
type OfferLetterFile struct {
	Filename string
	MIMEType string
	Data     []byte
}

type Repository interface {
	Create(ctx context.Context, app Application) (string, error)
	ExistsByContact(ctx context.Context, email, phone string) (bool, error)
	List(ctx context.Context) ([]Application, error)
	GetByRefNo(ctx context.Context, refNo string) (*Application, error)
	GetOfferLetter(ctx context.Context, refNo string) (*Document, error)
	UpdateStatus(ctx context.Context, refNo, status string) error
	AttachOfferLetter(ctx context.Context, refNo string, letter Document) error
	DeleteByRefNos(ctx context.Context, refNos []string) (int64, error)
}
