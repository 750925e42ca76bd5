package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"jobapply/internal/common"
	"jobapply/internal/datauri"
	"jobapply/internal/domain/application"
)

const applicationColumns = `ref_no, name, email, phone, gender, guardian_name, guardian_phone,
	job_type, location, status, has_work_exp, company, years_exp, work_location, has_pg,
	ssc_certificate_name, ssc_certificate_data, hsc_certificate_name, hsc_certificate_data,
	graduation_certificate_name, graduation_certificate_data, pg_certificate_name, pg_certificate_data,
	relieving_letter_name, relieving_letter_data, offer_letter_name, offer_letter_data, created_at`

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app application.Application) (string, error) {
	var refNo string
	err := r.db.QueryRowContext(ctx, `INSERT INTO applications (
			ref_no, name, email, phone, gender, guardian_name, guardian_phone,
			job_type, location, status, has_work_exp, company, years_exp, work_location, has_pg,
			ssc_certificate_name, ssc_certificate_data, hsc_certificate_name, hsc_certificate_data,
			graduation_certificate_name, graduation_certificate_data,
			pg_certificate_name, pg_certificate_data, relieving_letter_name, relieving_letter_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING ref_no`,
		app.RefNo, app.Name, app.Email, app.Phone, app.Gender, app.GuardianName, app.GuardianPhone,
		app.JobType, app.Location, app.Status, app.HasWorkExp, app.Company, app.YearsExp, app.WorkLocation, app.HasPG,
		app.Documents.SSCCertificate.Name, app.Documents.SSCCertificate.Data,
		app.Documents.HSCCertificate.Name, app.Documents.HSCCertificate.Data,
		app.Documents.GraduationCertificate.Name, app.Documents.GraduationCertificate.Data,
		optionalName(app.Documents.PGCertificate), optionalData(app.Documents.PGCertificate),
		optionalName(app.Documents.RelievingLetter), optionalData(app.Documents.RelievingLetter),
	).Scan(&refNo)
	if err != nil {
		if isUniqueViolation(err) {
			return "", common.NewError(common.CodeConflict, "an application with this email or phone number already exists", err)
		}
		return "", common.NewError(common.CodeInternal, "failed to save application", err)
	}
	return refNo, nil
}

func (r *ApplicationRepository) ExistsByContact(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE email = $1 OR phone = $2)`, email, phone).Scan(&exists)
	if err != nil {
		return false, common.NewError(common.CodeInternal, "failed to check duplicates", err)
	}
	return exists, nil
}

func (r *ApplicationRepository) List(ctx context.Context) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to retrieve applications", err)
	}
	defer rows.Close()
	items := []application.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to retrieve applications", err)
	}
	return items, nil
}

func (r *ApplicationRepository) GetByRefNo(ctx context.Context, refNo string) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE ref_no = $1`, refNo)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "application not found", err)
		}
		return nil, err
	}
	return app, nil
}

func (r *ApplicationRepository) GetOfferLetter(ctx context.Context, refNo string) (*application.Document, error) {
	var name, data sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT offer_letter_name, offer_letter_data FROM applications WHERE ref_no = $1`, refNo).Scan(&name, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "application not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to retrieve offer letter", err)
	}
	if !name.Valid || !data.Valid {
		return nil, common.NewError(common.CodeNotFound, "offer letter not found for this application", nil)
	}
	return &application.Document{Name: name.String, Data: data.String}, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, refNo, status string) error {
	var updated string
	err := r.db.QueryRowContext(ctx, `UPDATE applications SET status = $1 WHERE ref_no = $2 RETURNING ref_no`, status, refNo).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.NewError(common.CodeNotFound, "application not found", err)
		}
		return common.NewError(common.CodeInternal, "failed to update status", err)
	}
	return nil
}

func (r *ApplicationRepository) AttachOfferLetter(ctx context.Context, refNo string, letter application.Document) error {
	var updated string
	err := r.db.QueryRowContext(ctx, `UPDATE applications SET status = $1, offer_letter_name = $2, offer_letter_data = $3 WHERE ref_no = $4 RETURNING ref_no`,
		application.StatusApproved, letter.Name, letter.Data, refNo).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.NewError(common.CodeNotFound, "application not found", err)
		}
		return common.NewError(common.CodeInternal, "failed to upload offer letter", err)
	}
	return nil
}

func (r *ApplicationRepository) DeleteByRefNos(ctx context.Context, refNos []string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE ref_no = ANY($1)`, pq.Array(refNos))
	if err != nil {
		return 0, common.NewError(common.CodeInternal, "failed to delete applications", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, common.NewError(common.CodeInternal, "failed to delete applications", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var app application.Application
	var company, workLocation sql.NullString
	var yearsExp sql.NullFloat64
	var pgName, pgData, relName, relData, offerName, offerData sql.NullString
	err := row.Scan(
		&app.RefNo, &app.Name, &app.Email, &app.Phone, &app.Gender, &app.GuardianName, &app.GuardianPhone,
		&app.JobType, &app.Location, &app.Status, &app.HasWorkExp, &company, &yearsExp, &workLocation, &app.HasPG,
		&app.Documents.SSCCertificate.Name, &app.Documents.SSCCertificate.Data,
		&app.Documents.HSCCertificate.Name, &app.Documents.HSCCertificate.Data,
		&app.Documents.GraduationCertificate.Name, &app.Documents.GraduationCertificate.Data,
		&pgName, &pgData, &relName, &relData, &offerName, &offerData, &app.CreatedAt,
	)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to load application", err)
	}
	if company.Valid {
		app.Company = &company.String
	}
	if yearsExp.Valid {
		app.YearsExp = &yearsExp.Float64
	}
	if workLocation.Valid {
		app.WorkLocation = &workLocation.String
	}
	if err := fillType(&app.Documents.SSCCertificate); err != nil {
		return nil, err
	}
	if err := fillType(&app.Documents.HSCCertificate); err != nil {
		return nil, err
	}
	if err := fillType(&app.Documents.GraduationCertificate); err != nil {
		return nil, err
	}
	if app.Documents.PGCertificate, err = optionalDocument(pgName, pgData); err != nil {
		return nil, err
	}
	if app.Documents.RelievingLetter, err = optionalDocument(relName, relData); err != nil {
		return nil, err
	}
	if app.Documents.OfferLetter, err = optionalDocument(offerName, offerData); err != nil {
		return nil, err
	}
	return &app, nil
}

func fillType(doc *application.Document) error {
	mimeType, err := datauri.MIMEType(doc.Data)
	if err != nil {
		return common.NewError(common.CodeInternal, "stored document is not a valid data URI", err)
	}
	doc.Type = mimeType
	return nil
}

// optionalDocument materializes an optional slot. Absent slots stay nil so
// they are omitted from JSON output rather than emitted as null.
func optionalDocument(name, data sql.NullString) (*application.Document, error) {
	if !name.Valid {
		return nil, nil
	}
	doc := &application.Document{Name: name.String, Data: data.String}
	if err := fillType(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func optionalName(doc *application.Document) any {
	if doc == nil {
		return nil
	}
	return doc.Name
}

func optionalData(doc *application.Document) any {
	if doc == nil {
		return nil
	}
	return doc.Data
}

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
