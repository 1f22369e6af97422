package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
	"github.com/patric-chuzhbe/inoutbooks/internal/logger"
	"github.com/patric-chuzhbe/inoutbooks/internal/models"
	"github.com/patric-chuzhbe/inoutbooks/internal/validation"
)

const (
	MsgCredentialsRequired      = "Email and password are required"
	MsgAuthenticated            = "Authentication successful"
	MsgBadRequest               = "Bad Request"
	MsgQuestionsCountMismatch   = "Mismatch in number of security questions"
	MsgSecurityQuestionsCorrect = "Security questions successfully answered"
)

// Users checks credentials and security answers against the user directory.
type Users struct {
	db store
}

func NewUsers(db store) *Users {
	return &Users{db: db}
}

// Login succeeds when the password matches the stored hash of the user with
// the given email. Unknown emails and wrong passwords fail the same way.
func (s *Users) Login(ctx context.Context, request models.LoginRequest) error {
	if err := validate.Struct(request); err != nil {
		return newValidationError(MsgCredentialsRequired)
	}

	usr, err := s.findByEmail(ctx, request.Email)
	if err != nil {
		return err
	}
	if usr == nil {
		return ErrAuth
	}

	err = bcrypt.CompareHashAndPassword([]byte(usr.Password), []byte(request.Password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrAuth
	}
	if err != nil {
		return fmt.Errorf("compare password of user %d: %w", usr.ID, err)
	}

	return nil
}

// VerifySecurityQuestions compares the answers, by position, with the stored
// ones of the user with the given email. payload is the decoded request body.
func (s *Users) VerifySecurityQuestions(ctx context.Context, email string, payload any) error {
	if violations := validation.SecurityAnswers(payload); len(violations) > 0 {
		logger.Log.Debugw("security answers rejected", "email", email, "violations", violations)
		details := make([]any, 0, len(violations))
		for _, v := range violations {
			details = append(details, v)
		}
		return newValidationError(MsgBadRequest, details...)
	}

	var answers []models.SecurityAnswer
	if err := remarshal(payload, &answers); err != nil {
		return err
	}

	usr, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr == nil {
		logger.Log.Debugw("security answers for an unknown user", "email", email)
		return ErrAuth
	}

	if len(usr.SecurityQuestions) != len(answers) {
		logger.Log.Errorw("stored security questions count differs from the answers count",
			"email", email,
			"questions", len(usr.SecurityQuestions),
			"answers", len(answers),
		)
		return newValidationError(MsgBadRequest, MsgQuestionsCountMismatch)
	}

	expected := funk.Map(usr.SecurityQuestions, func(q models.SecurityQuestion) string { return q.Answer }).([]string)
	given := funk.Map(answers, func(a models.SecurityAnswer) string { return a.Answer }).([]string)
	for i := range expected {
		if expected[i] != given[i] {
			return ErrAuth
		}
	}

	return nil
}

func (s *Users) findByEmail(ctx context.Context, email string) (*models.User, error) {
	record, found, err := s.db.FindOne(ctx, collection.Record{"email": email})
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", email, err)
	}
	if !found {
		return nil, nil
	}

	var usr models.User
	if err := remarshal(record, &usr); err != nil {
		return nil, err
	}

	return &usr, nil
}
