package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"jobapply/internal/app"
	"jobapply/internal/common"
	"jobapply/internal/http/middleware"
	"jobapply/internal/http/response"
)

type ApplicationHandler struct {
	applications *app.ApplicationService
	limiter      middleware.Limiter
	createPerMin int
}

func NewApplicationHandler(applications *app.ApplicationService, limiter middleware.Limiter, createPerMin int) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, limiter: limiter, createPerMin: createPerMin}
}

type checkDuplicateRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type checkDuplicateResponse struct {
	IsDuplicate bool `json:"isDuplicate"`
}

func (h *ApplicationHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req checkDuplicateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Email == "" || req.Phone == "" {
		response.Error(w, common.NewValidationError("email and phone are required", nil))
		return
	}
	isDuplicate, err := h.applications.CheckDuplicate(r.Context(), req.Email, req.Phone)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, checkDuplicateResponse{IsDuplicate: isDuplicate})
}

type documentRequest struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type documentsRequest struct {
	SSCCertificate        *documentRequest `json:"sscCertificate"`
	HSCCertificate        *documentRequest `json:"hscCertificate"`
	GraduationCertificate *documentRequest `json:"graduationCertificate"`
	PGCertificate         *documentRequest `json:"pgCertificate"`
	RelievingLetter       *documentRequest `json:"relievingLetter"`
}

type createApplicationRequest struct {
	RefNo             string            `json:"refNo"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	Gender            string            `json:"gender"`
	GuardianName      string            `json:"guardianName"`
	GuardianPhone     string            `json:"guardianPhone"`
	JobType           string            `json:"jobType"`
	Location          string            `json:"location"`
	Status            string            `json:"status"`
	HasExperience     string            `json:"hasExperience"`
	CompanyName       string            `json:"companyName"`
	YearsOfExperience string            `json:"yearsOfExperience"`
	WorkLocation      string            `json:"workLocation"`
	Documents         *documentsRequest `json:"documents"`
}

type createApplicationResponse struct {
	RefNo   string `json:"refNo"`
	Message string `json:"message"`
}

func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		key := "create:" + middleware.ClientIP(r)
		if !h.limiter.Allow(key, h.createPerMin, time.Minute) {
			response.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many submissions, try again later"})
			return
		}
	}
	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	refNo, err := h.applications.Create(r.Context(), createInput(req))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, createApplicationResponse{RefNo: refNo, Message: "Application saved successfully"})
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.applications.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	refNo, err := refNoFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.applications.Get(r.Context(), refNo)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

// DownloadOfferLetter is the one endpoint that writes raw bytes instead of
// JSON.
func (h *ApplicationHandler) DownloadOfferLetter(w http.ResponseWriter, r *http.Request) {
	refNo, err := refNoFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	letter, err := h.applications.GetOfferLetterDocument(r.Context(), refNo)
	if err != nil {
		response.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", letter.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", letter.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(letter.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(letter.Data)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type refNoResponse struct {
	Message string `json:"message"`
	RefNo   string `json:"refNo"`
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	refNo, err := refNoFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if err := h.applications.UpdateStatus(r.Context(), refNo, req.Status); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, refNoResponse{Message: "Status updated successfully", RefNo: refNo})
}

type attachOfferLetterRequest struct {
	OfferLetter *documentRequest `json:"offerLetter"`
}

func (h *ApplicationHandler) AttachOfferLetter(w http.ResponseWriter, r *http.Request) {
	refNo, err := refNoFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req attachOfferLetterRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.OfferLetter == nil {
		response.Error(w, common.NewValidationError("offer letter is required", map[string]string{"offerLetter": "offerLetter is required"}))
		return
	}
	if err := h.applications.AttachOfferLetter(r.Context(), refNo, req.OfferLetter.Name, req.OfferLetter.Data); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, refNoResponse{Message: "Offer letter uploaded successfully", RefNo: refNo})
}

type deleteApplicationsRequest struct {
	RefNos []string `json:"refNos"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteApplicationsRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	deleted, err := h.applications.Delete(r.Context(), req.RefNos)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("%d application(s) deleted successfully", deleted)})
}

func createInput(req createApplicationRequest) app.CreateApplicationInput {
	in := app.CreateApplicationInput{
		RefNo:             req.RefNo,
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		Gender:            req.Gender,
		GuardianName:      req.GuardianName,
		GuardianPhone:     req.GuardianPhone,
		JobType:           req.JobType,
		Location:          req.Location,
		Status:            req.Status,
		HasExperience:     req.HasExperience,
		CompanyName:       req.CompanyName,
		YearsOfExperience: req.YearsOfExperience,
		WorkLocation:      req.WorkLocation,
	}
	if req.Documents != nil {
		in.Documents = &app.DocumentsInput{
			SSCCertificate:        documentInput(req.Documents.SSCCertificate),
			HSCCertificate:        documentInput(req.Documents.HSCCertificate),
			GraduationCertificate: documentInput(req.Documents.GraduationCertificate),
			PGCertificate:         documentInput(req.Documents.PGCertificate),
			RelievingLetter:       documentInput(req.Documents.RelievingLetter),
		}
	}
	return in
}

func documentInput(req *documentRequest) *app.DocumentInput {
	if req == nil {
		return nil
	}
	return &app.DocumentInput{Name: req.Name, Data: req.Data}
}
