package app

import (
	"context"
	"strconv"
	"strings"

	"jobapply/internal/common"
	"jobapply/internal/datauri"
	"jobapply/internal/domain/application"
)

type ApplicationService struct {
	repo application.Repository
}

func NewApplicationService(repo application.Repository) *ApplicationService {
	return &ApplicationService{repo: repo}
}

type DocumentInput struct {
	Name string
	Data string
}

type DocumentsInput struct {
	SSCCertificate        *DocumentInput
	HSCCertificate        *DocumentInput
	GraduationCertificate *DocumentInput
	PGCertificate         *DocumentInput
	RelievingLetter       *DocumentInput
}

type CreateApplicationInput struct {
	RefNo             string
	Name              string
	Email             string
	Phone             string
	Gender            string
	GuardianName      string
	GuardianPhone     string
	JobType           string
	Location          string
	Status            string
	HasExperience     string
	CompanyName       string
	YearsOfExperience string
	WorkLocation      string
	Documents         *DocumentsInput
}

func (s *ApplicationService) CheckDuplicate(ctx context.Context, email, phone string) (bool, error) {
	return s.repo.ExistsByContact(ctx, email, phone)
}

func (s *ApplicationService) Create(ctx context.Context, in CreateApplicationInput) (string, error) {
	if err := validateCreate(in); err != nil {
		return "", err
	}
	// Pre-check keeps the friendly conflict message; the UNIQUE constraints on
	// email and phone remain the authoritative signal, so a concurrent insert
	// that slips past this check still surfaces as the same conflict.
	duplicate, err := s.repo.ExistsByContact(ctx, in.Email, in.Phone)
	if err != nil {
		return "", err
	}
	if duplicate {
		return "", common.NewError(common.CodeConflict, "an application with this email or phone number already exists", nil)
	}

	app := application.Application{
		RefNo:         in.RefNo,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Gender:        in.Gender,
		GuardianName:  in.GuardianName,
		GuardianPhone: in.GuardianPhone,
		JobType:       in.JobType,
		Location:      in.Location,
		Status:        in.Status,
		HasPG:         in.Documents.PGCertificate != nil,
		Documents: application.Documents{
			SSCCertificate:        document(in.Documents.SSCCertificate),
			HSCCertificate:        document(in.Documents.HSCCertificate),
			GraduationCertificate: document(in.Documents.GraduationCertificate),
			PGCertificate:         optionalDocument(in.Documents.PGCertificate),
			RelievingLetter:       optionalDocument(in.Documents.RelievingLetter),
		},
	}
	if app.Status == "" {
		app.Status = application.StatusNew
	}
	if in.HasExperience == "yes" {
		app.HasWorkExp = true
		app.Company = &in.CompanyName
		app.WorkLocation = &in.WorkLocation
		if years, err := strconv.ParseFloat(strings.TrimSpace(in.YearsOfExperience), 64); err == nil {
			app.YearsExp = &years
		}
	}

	return s.repo.Create(ctx, app)
}

func (s *ApplicationService) List(ctx context.Context) ([]application.Application, error) {
	return s.repo.List(ctx)
}

func (s *ApplicationService) Get(ctx context.Context, refNo string) (*application.Application, error) {
	return s.repo.GetByRefNo(ctx, refNo)
}

func (s *ApplicationService) GetOfferLetterDocument(ctx context.Context, refNo string) (*application.OfferLetterFile, error) {
	letter, err := s.repo.GetOfferLetter(ctx, refNo)
	if err != nil {
		return nil, err
	}
	mimeType, data, err := datauri.Decode(letter.Data)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "stored offer letter is not a valid data URI", err)
	}
	return &application.OfferLetterFile{Filename: letter.Name, MIMEType: mimeType, Data: data}, nil
}

func (s *ApplicationService) UpdateStatus(ctx context.Context, refNo, status string) error {
	return s.repo.UpdateStatus(ctx, refNo, status)
}

func (s *ApplicationService) AttachOfferLetter(ctx context.Context, refNo, name, data string) error {
	if name == "" || data == "" {
		return common.NewValidationError("offer letter is required", map[string]string{"offerLetter": "name and data are required"})
	}
	return s.repo.AttachOfferLetter(ctx, refNo, application.Document{Name: name, Data: data})
}

func (s *ApplicationService) Delete(ctx context.Context, refNos []string) (int64, error) {
	if len(refNos) == 0 {
		return 0, common.NewValidationError("no applications selected for deletion", map[string]string{"refNos": "refNos must be a non-empty list"})
	}
	return s.repo.DeleteByRefNos(ctx, refNos)
}

func validateCreate(in CreateApplicationInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.RefNo) == "" {
		fields["refNo"] = "refNo is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "email is required"
	}
	if strings.TrimSpace(in.Phone) == "" {
		fields["phone"] = "phone is required"
	}
	if in.Documents == nil {
		fields["documents"] = "documents are required"
	} else {
		if in.Documents.SSCCertificate == nil {
			fields["documents.sscCertificate"] = "sscCertificate is required"
		}
		if in.Documents.HSCCertificate == nil {
			fields["documents.hscCertificate"] = "hscCertificate is required"
		}
		if in.Documents.GraduationCertificate == nil {
			fields["documents.graduationCertificate"] = "graduationCertificate is required"
		}
	}
	if len(fields) > 0 {
		return common.NewValidationError("missing required fields", fields)
	}
	return nil
}

func document(in *DocumentInput) application.Document {
	return application.Document{Name: in.Name, Data: in.Data}
}

func optionalDocument(in *DocumentInput) *application.Document {
	if in == nil {
		return nil
	}
	return &application.Document{Name: in.Name, Data: in.Data}
}
