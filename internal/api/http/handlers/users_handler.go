package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/drive-service/internal/api/dto"
	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/domain"
	"github.com/spec-kit/drive-service/internal/service"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// UsersHandler exposes admin account management endpoints. Routes are
// mounted behind the admin-only middleware.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}

	responses := make([]dto.AdminUserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, adminUserResponse(&users[i].User, users[i].FileCount, users[i].UsageBytes))
	}
	return c.JSON(responses)
}

// Get handles GET /admin/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(adminUserResponse(user, 0, 0))
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	input, err := parseUserInput(c)
	if err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(adminUserResponse(user, 0, 0))
}

// Update handles PUT /admin/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	input, err := parseUserInput(c)
	if err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(adminUserResponse(user, 0, 0))
}

// Delete handles DELETE /admin/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.users.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "user deleted successfully"})
}

func parseUserInput(c *fiber.Ctx) (service.UserInput, error) {
	var req dto.UserUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return service.UserInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.UserInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}, nil
}

func adminUserResponse(user *domain.User, fileCount, usageBytes int64) dto.AdminUserResponse {
	return dto.AdminUserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Username:   user.Username,
		Role:       string(user.Role),
		FileCount:  fileCount,
		UsageBytes: usageBytes,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
