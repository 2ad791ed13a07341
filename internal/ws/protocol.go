package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"motomarket-chat/internal/apperrors"
	"motomarket-chat/internal/models"
)

// Frame types.
const (
	TypeAuthenticate  = "authenticate"
	TypeAuthenticated = "authenticated"
	TypeChatMessage   = "chat_message"
	TypeNewMessage    = "new_message"
	TypeError         = "error"
)

// Frame is an inbound client frame.
type Frame interface {
	FrameType() string
}

type AuthenticateFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

func (AuthenticateFrame) FrameType() string { return TypeAuthenticate }

type ChatMessageFrame struct {
	Type       string `json:"type"`
	ChatRoomID string `json:"chatRoomId" validate:"required"`
	SenderID   string `json:"senderId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

func (ChatMessageFrame) FrameType() string { return TypeChatMessage }

type AuthenticatedFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type NewMessageFrame struct {
	Type       string             `json:"type"`
	Message    models.MessageView `json:"message"`
	ChatRoomID string             `json:"chatRoomId"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func newErrorFrame(err error) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: apperrors.MessageOf(err), Code: string(apperrors.KindOf(err))}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseFrame decodes and validates one inbound text frame. Failures are InvalidInput errors.
func ParseFrame(data []byte) (Frame, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "malformed frame", err)
	}

	var frame Frame
	switch envelope.Type {
	case TypeAuthenticate:
		var f AuthenticateFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, apperrors.New(apperrors.KindInvalidInput, "malformed authenticate frame", err)
		}
		frame = f
	case TypeChatMessage:
		var f ChatMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, apperrors.New(apperrors.KindInvalidInput, "malformed chat_message frame", err)
		}
		frame = f
	case "":
		return nil, apperrors.InvalidInput("frame type is required")
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown frame type %q", envelope.Type))
	}

	if err := validate.Struct(frame); err != nil {
		return nil, validationError(envelope.Type, err)
	}
	return frame, nil
}

func validationError(frameType string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.New(apperrors.KindInvalidInput, "invalid "+frameType+" frame", err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return apperrors.New(apperrors.KindInvalidInput, frameType+": missing "+strings.Join(missing, ", "), err)
}
