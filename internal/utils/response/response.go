package response

import (
	stderrors "errors"

	apperrors "gamewallet/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:        fiber.StatusBadRequest,
	apperrors.KindAuthorization:     fiber.StatusForbidden,
	apperrors.KindNotFound:          fiber.StatusNotFound,
	apperrors.KindInsufficientFunds: fiber.StatusUnprocessableEntity,
	apperrors.KindConflict:          fiber.StatusConflict,
	apperrors.KindInternal:          fiber.StatusInternalServerError,
}

// StatusOf maps a domain error kind to its HTTP status.
func StatusOf(kind apperrors.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

func JSON(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Error renders err. Internal causes are not exposed to the client.
func Error(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return Raw(c, fe.Code, "HTTP", "HTTP_ERROR", fe.Message)
	}
	de := apperrors.As(err)
	body := ErrorBody{Error: ErrorDetail{
		Kind:    string(de.Kind),
		Code:    de.Code,
		Message: de.Message,
		Detail:  de.Detail,
	}}
	return c.Status(StatusOf(de.Kind)).JSON(body)
}

// Raw renders an error that did not come from the domain.
func Raw(c *fiber.Ctx, status int, kind, code, message string) error {
	return c.Status(status).JSON(ErrorBody{Error: ErrorDetail{Kind: kind, Code: code, Message: message}})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Raw(c, fiber.StatusUnauthorized, "AUTHENTICATION", "UNAUTHENTICATED", message)
}

func BadRequest(c *fiber.Ctx, code, message string) error {
	return Error(c, apperrors.Validation(code, message))
}
