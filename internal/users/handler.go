package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/rbac"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers user routes. The caller is expected to have
// installed the route guard already.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Route("/users", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermUsersView)).Get("/", h.listUsers)
		r.With(h.rbac.RequireAny(shared.PermUsersEdit)).Post("/", h.createUser)
		r.Get("/{profileID}", h.getUser)
		r.Patch("/{profileID}", h.updateUser)
		r.Put("/{profileID}/password", h.changePassword)
	})
}

type createUserRequest struct {
	Email              string     `json:"email" validate:"required,email,max=254"`
	Password           string     `json:"password" validate:"required,min=8,max=1024"`
	FirstName          string     `json:"firstName" validate:"required,max=100"`
	LastName           string     `json:"lastName" validate:"required,max=100"`
	Role               string     `json:"role" validate:"required,oneof=hr employee"`
	Phone              *string    `json:"phone" validate:"omitempty,max=32"`
	DepartmentID       *uuid.UUID `json:"departmentId"`
	DesignationID      *uuid.UUID `json:"designationId"`
	ReportingManagerID *uuid.UUID `json:"reportingManagerId"`
	EmployeeID         *string    `json:"employeeId" validate:"omitempty,max=50"`
	DateOfBirth        *time.Time `json:"dateOfBirth"`
	JoiningDate        *time.Time `json:"joiningDate"`
	EmploymentStatus   string     `json:"employmentStatus" validate:"omitempty,oneof=active probation on_leave suspended terminated"`
}

type updateUserRequest struct {
	FirstName          *string    `json:"firstName" validate:"omitempty,max=100"`
	LastName           *string    `json:"lastName" validate:"omitempty,max=100"`
	Phone              *string    `json:"phone" validate:"omitempty,max=32"`
	DepartmentID       *uuid.UUID `json:"departmentId"`
	DesignationID      *uuid.UUID `json:"designationId"`
	ReportingManagerID *uuid.UUID `json:"reportingManagerId"`
	EmploymentStatus   *string    `json:"employmentStatus"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := authctx.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: q.Get("status")}
	if raw := q.Get("role"); raw != "" {
		role, ok := auth.ParseRole(raw)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
			return
		}
		filter.Role = role
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	employees, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	if employees == nil {
		employees = []Employee{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": employees})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, profileID, ok := h.target(w, r)
	if !ok {
		return
	}
	employee, err := h.service.Get(r.Context(), actor, profileID)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, employee)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	actor := authctx.UserFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), actor, auth.NewUser{
		Email:              req.Email,
		Password:           req.Password,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Role:               auth.Role(req.Role),
		Phone:              req.Phone,
		DepartmentID:       req.DepartmentID,
		DesignationID:      req.DesignationID,
		DateOfBirth:        req.DateOfBirth,
		JoiningDate:        req.JoiningDate,
		EmployeeID:         req.EmployeeID,
		ReportingManagerID: req.ReportingManagerID,
		EmploymentStatus:   req.EmploymentStatus,
	})
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"userId": created.UserID, "profileId": created.ProfileID})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, profileID, ok := h.target(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	employee, err := h.service.Update(r.Context(), actor, profileID, Update(req))
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, employee)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	actor, profileID, ok := h.target(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangePassword(r.Context(), actor, profileID, req.Password); err != nil {
		h.fail(w, "change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*auth.User, uuid.UUID, bool) {
	actor := authctx.UserFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, uuid.Nil, false
	}
	profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		httpx.RespondError(w, ErrNotFound)
		return nil, uuid.Nil, false
	}
	return actor, profileID, true
}

// fail maps auth and users errors to problem responses.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		status := http.StatusInternalServerError
		switch authErr.Code {
		case auth.CodeEmailTaken:
			status = http.StatusConflict
		case auth.CodeMissingFields, auth.CodeInvalidRole:
			status = http.StatusBadRequest
		case auth.CodeProfileNotFound:
			status = http.StatusNotFound
		}
		if status == http.StatusInternalServerError {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.Problem(w, status, http.StatusText(status), authErr.Message)
		return
	}
	if errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrForbidden) || errors.Is(err, httpx.ErrValidation) {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
